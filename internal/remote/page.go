package remote

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

const (
	answerPrefix      = "Your puzzle answer was"
	bothCompleteText  = "Both parts of this puzzle are complete"
	firstCompleteText = "The first half of this puzzle is complete"
)

// parseStatusPage extracts per-part solved state from a day page.
//
// A logged-in page carries <div class="user">. Each solved part is followed by
// <p>Your puzzle answer was <code>X</code>.</p>, in part order.
func parseStatusPage(r io.Reader) (types.StatusSnapshot, error) {
	var snap types.StatusSnapshot

	doc, err := html.Parse(r)
	if err != nil {
		return snap, fmt.Errorf("%w: status page: %v", ErrParse, err)
	}

	var (
		loggedIn  bool
		sawPuzzle bool
		answers   []string
		solved    int
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "div" && hasClass(n, "user"):
				loggedIn = true
			case n.Data == "article" && hasClass(n, "day-desc"):
				sawPuzzle = true
			case n.Data == "p":
				text := collapse(textContent(n))
				switch {
				case strings.HasPrefix(text, answerPrefix):
					if code := firstChild(n, "code"); code != nil {
						answers = append(answers, strings.TrimSpace(textContent(code)))
					} else {
						answers = append(answers, "")
					}
				case strings.Contains(text, bothCompleteText):
					solved = 2
				case strings.Contains(text, firstCompleteText) && solved < 1:
					solved = 1
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if !loggedIn {
		return snap, ErrAuthExpired
	}
	if !sawPuzzle {
		return snap, fmt.Errorf("%w: status page has no puzzle description", ErrParse)
	}
	if len(answers) > 2 {
		return snap, fmt.Errorf("%w: status page lists %d answers", ErrParse, len(answers))
	}

	for i, part := range types.Parts {
		st := types.PartStatus{Solved: i < solved}
		if i < len(answers) {
			st.Solved = true
			st.Answer = answers[i]
		}
		snap.Set(part, st)
	}
	return snap, nil
}

// parseAnswerPage maps the <article> text of a submission response to a verdict.
func parseAnswerPage(r io.Reader) (Submission, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Submission{}, fmt.Errorf("%w: answer page: %v", ErrParse, err)
	}

	article := findFirst(doc, "article")
	if article == nil {
		if !hasUser(doc) {
			return Submission{Verdict: types.VerdictAuthExpired}, nil
		}
		return Submission{}, fmt.Errorf("%w: answer page has no article", ErrParse)
	}

	msg := collapse(textContent(article))
	sub := Submission{Message: msg}
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "that's the right answer"):
		sub.Verdict = types.VerdictAccepted
	case strings.Contains(lower, "answer too recently"):
		sub.Verdict = types.VerdictRateLimited
	case strings.Contains(lower, "right level"), strings.Contains(lower, "already complete"):
		sub.Verdict = types.VerdictAlreadySolved
	case strings.Contains(lower, "not the right answer"):
		switch {
		case strings.Contains(lower, "too high"):
			sub.Verdict = types.VerdictRejectedTooHigh
		case strings.Contains(lower, "too low"):
			sub.Verdict = types.VerdictRejectedTooLow
		default:
			sub.Verdict = types.VerdictRejectedOther
		}
	default:
		return Submission{}, fmt.Errorf("%w: unrecognised answer response %q", ErrParse, msg)
	}
	return sub, nil
}

func hasUser(doc *html.Node) bool {
	found := false
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "user") {
			found = true
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func firstChild(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
