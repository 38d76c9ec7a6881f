package cst

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/dupescan/internal/langtable"
)

func TestLanguageForDelegatesToLangtable(t *testing.T) {
	p := NewTreeSitterProvider()

	tag, ok := p.LanguageFor(".go")
	assert.True(t, ok)
	assert.Equal(t, langtable.Go, tag)

	_, ok = p.LanguageFor(".unknown")
	assert.False(t, ok)
}

func TestParseRejectsUnregisteredLanguage(t *testing.T) {
	p := &TreeSitterProvider{}
	_, err := p.Parse(langtable.Go, []byte("package main"))
	assert.Error(t, err, "an empty provider has no languages registered")
}
