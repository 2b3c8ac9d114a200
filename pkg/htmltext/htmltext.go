// Package htmltext derives the plain-text alternative of an HTML email body.
//
// Convert is deterministic and side-effect free: entities are decoded, <br> variants become
// newlines, non-visible elements (head, style, script, object, embed, applet, noframes,
// noscript, noembed) are removed together with their content, remaining tags are stripped and
// whitespace is normalised. The result always ends with exactly one "\n".
package htmltext

import (
	"regexp"
	"strings"

	"github.com/dmitrymomot/mailkit/pkg/sanitizer"
)

var (
	breakRegex = regexp.MustCompile(`(?is)<br[^>]*?>`)

	invisibleRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<applet[^>]*?.*?</applet>`),
		regexp.MustCompile(`(?is)<embed[^>]*?.*?</embed>`),
		regexp.MustCompile(`(?is)<head[^>]*?>.*?</head>`),
		regexp.MustCompile(`(?is)<noframes[^>]*?.*?</noframes>`),
		regexp.MustCompile(`(?is)<noscript[^>]*?.*?</noscript>`),
		regexp.MustCompile(`(?is)<noembed[^>]*?.*?</noembed>`),
		regexp.MustCompile(`(?is)<object[^>]*?.*?</object>`),
		regexp.MustCompile(`(?is)<script[^>]*?.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*?>.*?</style>`),
	}

	crlfRegex       = regexp.MustCompile(`\n\r|\r\n`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
	spacesRegex     = regexp.MustCompile(` {2,}`)
)

// Convert returns the plain-text rendition of an HTML body.
func Convert(html string) string {
	str := sanitizer.UnescapeHTML(html)

	str = breakRegex.ReplaceAllString(str, "\n")
	for _, re := range invisibleRegexes {
		str = re.ReplaceAllString(str, "")
	}
	str = sanitizer.StripTags(str)

	str = strings.ReplaceAll(str, "\t", "")
	str = crlfRegex.ReplaceAllString(str, "\n")
	str = blankLinesRegex.ReplaceAllString(str, "\n\n")
	str = spacesRegex.ReplaceAllString(str, " ")

	lines := strings.Split(str, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}
