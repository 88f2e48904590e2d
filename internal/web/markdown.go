package web

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// codeStyle colours fenced code in record descriptions and logs.
var codeStyle = styles.Register(chroma.MustNewStyle("memoria", chroma.StyleEntries{
	chroma.Background:      "#1f1f1f",
	chroma.Text:            "#fafafa",
	chroma.Error:           "#ef4444",
	chroma.Comment:         "#525252",
	chroma.Keyword:         "#22c55e",
	chroma.Operator:        "#fafafa",
	chroma.Punctuation:     "#a1a1aa",
	chroma.Name:            "#fafafa",
	chroma.NameBuiltin:     "#22c55e",
	chroma.NameFunction:    "#22c55e",
	chroma.NameAttribute:   "#a1a1aa",
	chroma.LiteralString:   "#a3e635",
	chroma.LiteralNumber:   "#f97316",
	chroma.GenericHeading:  "#fafafa bold",
	chroma.GenericDeleted:  "#ef4444",
	chroma.GenericInserted: "#22c55e",
}))

// MarkdownRenderer turns record markdown into HTML. Raw HTML in record text
// is not passed through.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(&recordHTMLRenderer{}, 100)),
		),
	)
	return &MarkdownRenderer{md: md}
}

func (r *MarkdownRenderer) Render(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// TOCItem is one h2 or h3 heading of a rendered record.
type TOCItem struct {
	Level int
	Text  string
	ID    string
}

// RenderWithTOC renders source and collects its h2/h3 headings.
func (r *MarkdownRenderer) RenderWithTOC(source []byte) (string, []TOCItem, error) {
	html, err := r.Render(source)
	if err != nil {
		return "", nil, err
	}
	return html, extractTOC(r.md, source), nil
}

func extractTOC(md goldmark.Markdown, source []byte) []TOCItem {
	var toc []TOCItem
	doc := md.Parser().Parse(text.NewReader(source))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		heading, ok := n.(*ast.Heading)
		if !entering || !ok || heading.Level < 2 || heading.Level > 3 {
			return ast.WalkContinue, nil
		}
		var label strings.Builder
		for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
			if t, ok := child.(*ast.Text); ok {
				label.Write(t.Segment.Value(source))
			}
		}
		toc = append(toc, TOCItem{Level: heading.Level, Text: strings.TrimSpace(label.String()), ID: headingID(heading)})
		return ast.WalkSkipChildren, nil
	})
	return toc
}

func headingID(n *ast.Heading) string {
	if id, ok := n.AttributeString("id"); ok {
		if b, ok := id.([]byte); ok {
			return string(b)
		}
	}
	return ""
}

// recordHTMLRenderer adds heading anchors, chroma highlighting and the
// stylesheet's classes.
type recordHTMLRenderer struct{}

func (r *recordHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, r.renderHeading)
	reg.Register(ast.KindFencedCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindBlockquote, r.renderBlockquote)
	reg.Register(ast.KindCodeSpan, r.renderCodeSpan)
}

func (r *recordHTMLRenderer) renderHeading(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	if !entering {
		fmt.Fprintf(w, "</h%d>\n", n.Level)
		return ast.WalkContinue, nil
	}
	id := html.EscapeString(headingID(n))
	if id == "" {
		fmt.Fprintf(w, "<h%d>", n.Level)
		return ast.WalkContinue, nil
	}
	fmt.Fprintf(w, `<h%d id="%s"><a href="#%s" class="anchor" aria-hidden="true">#</a>`, n.Level, id, id)
	return ast.WalkContinue, nil
}

func (r *recordHTMLRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	highlighted, err := highlightCode(code.String(), string(n.Language(source)))
	if err != nil {
		_, _ = w.WriteString(`<pre class="code-block"><code>`)
		_, _ = w.Write(util.EscapeHTML(code.Bytes()))
		_, _ = w.WriteString("</code></pre>\n")
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.WriteString(highlighted)
	return ast.WalkSkipChildren, nil
}

func highlightCode(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return "", err
	}

	formatter := chromahtml.New(chromahtml.WithPreWrapper(codeBlockWrapper{}))
	var buf bytes.Buffer
	if err := formatter.Format(&buf, codeStyle, iterator); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type codeBlockWrapper struct{}

func (codeBlockWrapper) Start(code bool, styleAttr string) string {
	if code {
		return fmt.Sprintf(`<div class="code-block"><pre%s>`, styleAttr)
	}
	return `<pre class="code-block">`
}

func (codeBlockWrapper) End(code bool) string {
	if code {
		return "</pre></div>"
	}
	return "</pre>"
}

func (r *recordHTMLRenderer) renderBlockquote(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(`<blockquote class="callout">`)
	} else {
		_, _ = w.WriteString("</blockquote>\n")
	}
	return ast.WalkContinue, nil
}

func (r *recordHTMLRenderer) renderCodeSpan(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(`<code class="code-inline">`)
	} else {
		_, _ = w.WriteString("</code>")
	}
	return ast.WalkContinue, nil
}
