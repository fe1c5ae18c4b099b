package indexer

import "regexp"

const subitemWindow = 200 // runes searched for a lettered sub-item

var (
	articleRe       = regexp.MustCompile(`(?i)Artigo\s+(\d+)`)
	articleAbbrevRe = regexp.MustCompile(`(?i)Art\.\s+(\d+)`)
	chapterRe       = regexp.MustCompile(`(?i)CAPÍTULO\s+([IVX]+|\d+)`)
	sectionRe       = regexp.MustCompile(`(?i)SECÇÃO\s+([IVX]+|\d+)`)
	subitemRe       = regexp.MustCompile(`(?i)[a-z]\)`)
)

// ExtractArticleInfo scans a chunk for structural markers: the first
// article number (full or abbreviated form), chapter, section, and the
// presence of a lettered sub-item near the start of the chunk.
func ExtractArticleInfo(chunk string) ArticleInfo {
	var info ArticleInfo

	match := articleRe.FindStringSubmatch(chunk)
	if match == nil {
		match = articleAbbrevRe.FindStringSubmatch(chunk)
	}
	if match != nil {
		info.ArticleNumber = match[1]
	}

	if match := chapterRe.FindStringSubmatch(chunk); match != nil {
		info.Chapter = match[1]
	}

	if match := sectionRe.FindStringSubmatch(chunk); match != nil {
		info.Section = match[1]
	}

	head := []rune(chunk)
	if len(head) > subitemWindow {
		head = head[:subitemWindow]
	}
	info.HasSubitems = subitemRe.MatchString(string(head))

	return info
}
