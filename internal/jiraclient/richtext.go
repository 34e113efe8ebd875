package jiraclient

import "strings"

// adfDoc is a minimal Atlassian-Document-Format tree: doc -> paragraph ->
// text. Only the shapes this client produces and consumes are modeled.
type adfDoc struct {
	Type    string      `json:"type"`
	Version int         `json:"version"`
	Content []adfNode   `json:"content"`
}

type adfNode struct {
	Type    string    `json:"type"`
	Content []adfNode `json:"content,omitempty"`
	Text    string    `json:"text,omitempty"`
}

// flattenRichText walks every paragraph and every text run within it,
// concatenating all of them into plain text. Paragraphs are joined by a
// single space, as are the text runs within a paragraph.
func flattenRichText(doc *adfDoc) string {
	if doc == nil {
		return ""
	}
	var paragraphs []string
	for _, node := range doc.Content {
		if node.Type != "paragraph" {
			continue
		}
		var runs []string
		for _, run := range node.Content {
			if run.Type == "text" && run.Text != "" {
				runs = append(runs, run.Text)
			}
		}
		if len(runs) > 0 {
			paragraphs = append(paragraphs, strings.Join(runs, " "))
		}
	}
	return strings.Join(paragraphs, " ")
}

// inflateRichText re-wraps plain text into the single-paragraph ADF shape
// expected by write endpoints.
func inflateRichText(text string) *adfDoc {
	return &adfDoc{
		Type:    "doc",
		Version: 1,
		Content: []adfNode{
			{
				Type: "paragraph",
				Content: []adfNode{
					{Type: "text", Text: text},
				},
			},
		},
	}
}
