package prompt

import "regexp"

func xmlBlockPattern(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<` + tag + `>.*?</` + tag + `>`)
}

func firstMatch(re *regexp.Regexp, s string) string {
	return re.FindString(s)
}
