// Command highlight renders a source file with ANSI color escapes, picking
// a grammar and theme from a directory of installed definitions. Adapted
// from the teacher's cmd/colorcat, split into cobra subcommands and
// backed by a synlex.Catalog instead of a bare textmate.Loader.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/aldenbrook/synlex"
	"github.com/aldenbrook/synlex/theme"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "highlight",
		Short: "Render source text with ANSI color escapes using a synlex grammar catalog",
	}

	root.PersistentFlags().String("grammar-dir", "/usr/share/highlight/grammars", "directory of .sublime-syntax/.tmLanguage/.plist grammars")
	root.PersistentFlags().String("theme-dir", "/usr/share/highlight/themes", "directory of theme.json files")
	viper.BindPFlag("grammar_dir", root.PersistentFlags().Lookup("grammar-dir"))
	viper.BindPFlag("theme_dir", root.PersistentFlags().Lookup("theme-dir"))
	viper.SetEnvPrefix("highlight")
	viper.AutomaticEnv()

	root.AddCommand(newRenderCmd())
	root.AddCommand(newListCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	var syntax, themeName string
	var transparent bool

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Tokenize and render a file (or stdin) to the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := synlex.NewCatalogFromDir(viper.GetString("grammar_dir"), true)

			var src io.ReadCloser = os.Stdin
			name := ""
			if len(args) > 0 {
				name = args[0]
				f, err := os.Open(name)
				if err != nil {
					return fmt.Errorf("open %q: %w", name, err)
				}
				src = f
			}
			defer src.Close()

			if syntax == "" && name != "" {
				syntax = strings.TrimPrefix(path.Ext(name), ".")
			}

			grammar, err := cat.FromFileType(syntax, 0)
			if err != nil {
				return fmt.Errorf("load grammar for %q: %w", syntax, err)
			}

			t, err := loadTheme(viper.GetString("theme_dir"), themeName)
			if err != nil {
				return fmt.Errorf("load theme %q: %w", themeName, err)
			}

			out := colorable.NewColorable(os.Stdout)
			plain := transparent || !term.IsTerminal(int(os.Stdout.Fd()))
			return renderSource(out, src, grammar, t, plain)
		},
	}

	cmd.Flags().StringVar(&syntax, "syntax", "", "grammar file extension (defaults to the input file's extension)")
	cmd.Flags().StringVar(&themeName, "theme", "default", "theme name, without the .json suffix")
	cmd.Flags().BoolVar(&transparent, "transparent", false, "never emit ANSI escapes, even on a terminal")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the file extensions of installed grammars",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := synlex.NewCatalogFromDir(viper.GetString("grammar_dir"), true)
			exts := slices.Collect(cat.FileTypes())
			sort.Strings(exts)
			for _, ext := range exts {
				fmt.Printf("- %s\n", ext)
			}
			return nil
		},
	}
}

func loadTheme(themeDir, name string) (*theme.Theme, error) {
	data, err := os.ReadFile(filepath.Join(themeDir, name+".json"))
	if err != nil {
		return nil, err
	}
	var j theme.ThemeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse theme: %w", err)
	}
	return theme.ParseTheme(j), nil
}

// renderSource tokenizes src line by line against one ParseState (so
// push/set/pop actions carry state across lines, per §5) and writes each
// line to out with ANSI color escapes, or plain text if plain is true.
func renderSource(out io.Writer, src io.Reader, grammar *synlex.Grammar, t *theme.Theme, plain bool) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	state := synlex.NewParseState(grammar)
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := scanner.Text()
		tokens, err := state.ParseLine(line)
		if err != nil {
			return fmt.Errorf("tokenize: %w", err)
		}
		if plain {
			fmt.Fprintln(w, line)
			continue
		}
		writeANSILine(w, tokens, t)
	}
	return scanner.Err()
}

func writeANSILine(w io.Writer, tokens []synlex.Token, t *theme.Theme) {
	for _, tok := range tokens {
		style := t.StyleToken(tok)

		var csi bytes.Buffer
		csi.WriteString("\033[0")
		if style.FontStyle.Has(theme.Bold) {
			csi.WriteString(";1")
		}
		if style.FontStyle.Has(theme.Italic) {
			csi.WriteString(";3")
		}
		if style.FontStyle.Has(theme.Underline) {
			csi.WriteString(";4")
		}
		if style.FontStyle.Has(theme.Strikethrough) {
			csi.WriteString(";9")
		}
		if style.Foreground != nil {
			r, g, b, _ := style.Foreground.RGBA()
			fmt.Fprintf(&csi, ";38;2;%d;%d;%d", r>>8, g>>8, b>>8)
		}
		if style.Background != nil {
			r, g, b, _ := style.Background.RGBA()
			fmt.Fprintf(&csi, ";48;2;%d;%d;%d", r>>8, g>>8, b>>8)
		}
		csi.WriteByte('m')
		csi.WriteTo(w)
		io.WriteString(w, tok.Text)
	}
	fmt.Fprint(w, "\033[0m\n")
}
