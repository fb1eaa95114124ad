package errorpages

import "strconv"

// Resolve selects the page path for a response status. Statuses of 400 and
// above use their own entry when one is configured; everything else falls
// back to the wildcard entry. It reports false when neither exists.
func Resolve(status int, index Index) (string, bool) {
	return index.Resolve(status)
}

func (i Index) Resolve(status int) (string, bool) {
	if status >= 400 {
		if path, ok := i.Lookup(strconv.Itoa(status)); ok {
			return path, true
		}
	}
	return i.Wildcard()
}
