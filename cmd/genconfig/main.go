// Command genconfig renders config.default.toml from config.ExampleConfig
// and the field comments in config.ConfigDocs.
//
// It runs through go generate in internal/config.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"tools.zach/dev/richcord/internal/config"
)

func main() {
	// go generate runs in internal/config; the root package embeds the file.
	out := flag.String("o", "../../config.default.toml", "output path")
	flag.Parse()

	text, err := render(config.ExampleConfig(), config.ConfigDocs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "genconfig: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, []byte(text), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "genconfig: write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *out)
}

// render encodes cfg and annotates it with docs. Documented keys the encoder
// left out are appended to their section as comments.
func render(cfg *config.Config, docs map[string]config.FieldDoc) (string, error) {
	var raw bytes.Buffer
	if err := toml.NewEncoder(&raw).Encode(cfg); err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	out := []string{
		"# ///////////////////////////////////////////////",
		"# richcord Configuration",
		"# ///////////////////////////////////////////////",
		"",
	}
	comment := func(text string) {
		for l := range strings.SplitSeq(text, "\n") {
			out = append(out, "# "+l)
		}
	}

	section := ""
	emitted := map[string]bool{}
	for line := range strings.SplitSeq(raw.String(), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue

		case strings.HasPrefix(line, "[") && !strings.HasPrefix(line, "[["):
			out = appendOmitted(out, section, docs, emitted)
			section = strings.Trim(line, "[] ")
			out = append(out, "", fmt.Sprintf("# ///// %s /////", sectionName(section)), "")
			if doc := docs[section]; doc.Comment != "" {
				comment(doc.Comment)
			}
			out = append(out, line)

		case !strings.Contains(line, "=") || strings.HasPrefix(line, "#"):
			out = append(out, line)

		default:
			key := strings.TrimSpace(strings.SplitN(line, "=", 2)[0])
			if section != "" {
				key = section + "." + key
			}
			emitted[key] = true
			doc := docs[key]
			if doc.Comment != "" {
				comment(doc.Comment)
			}
			out = append(out, line)
			for _, alt := range doc.Alternatives {
				out = append(out, "# "+alt)
			}
		}
	}
	out = appendOmitted(out, section, docs, emitted)

	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n", nil
}

// appendOmitted writes commented entries for documented direct children of
// section that the encoder did not emit, in key order.
func appendOmitted(out []string, section string, docs map[string]config.FieldDoc, emitted map[string]bool) []string {
	if section == "" {
		return out
	}
	prefix := section + "."

	var keys []string
	for key := range docs {
		rest, ok := strings.CutPrefix(key, prefix)
		if ok && !strings.Contains(rest, ".") && !emitted[key] {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	for _, key := range keys {
		doc := docs[key]
		out = append(out, "")
		for l := range strings.SplitSeq(doc.Comment, "\n") {
			if l != "" {
				out = append(out, "# "+l)
			}
		}
		for _, alt := range doc.Alternatives {
			out = append(out, "# "+alt)
		}
		emitted[key] = true
	}
	return out
}

// sectionName title-cases the last segment of a dotted section header.
func sectionName(section string) string {
	last := section[strings.LastIndexByte(section, '.')+1:]
	if last == "" {
		return ""
	}
	return strings.ToUpper(last[:1]) + last[1:]
}
