package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDLFile reads an optional .dupescan.kdl configuration file and
// applies its values onto a copy of base. If path does not exist this is
// not an error: it simply returns base unchanged, since the config file is
// an additive convenience layer over the CLI contract (§6).
func LoadKDLFile(path string, base *Config) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := *base
	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "source-path":
			if s, ok := firstStringArg(n); ok {
				cfg.SourcePath = s
			}
		case "languages":
			cfg.Languages = collectStringArgs(n)
		case "excludes":
			cfg.Excludes = collectStringArgs(n)
		case "output-format":
			if s, ok := firstStringArg(n); ok {
				cfg.OutputFormat = OutputFormat(s)
			}
		case "output-file":
			if s, ok := firstStringArg(n); ok {
				cfg.OutputFile = s
			}
		case "threshold":
			if v, ok := firstIntArg(n); ok {
				cfg.Threshold = v
			}
		case "threads":
			if v, ok := firstIntArg(n); ok {
				cfg.Threads = v
			}
		case "max-file-size":
			if v, ok := firstIntArg(n); ok {
				cfg.MaxFileSize = int64(v)
			} else if s, ok := firstStringArg(n); ok {
				if sz, err := parseSize(s); err == nil {
					cfg.MaxFileSize = sz
				}
			}
		case "debug":
			if b, ok := firstBoolArg(n); ok {
				cfg.Debug = b
			}
		}
	}

	return &cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs gathers a node's string values, either from its
// inline arguments ("excludes \"a\" \"b\"") or, if none, from its
// children's node names (block form: "excludes { a; b; }").
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// parseSize handles size strings like "10MB", "500KB", "1GB".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}
