package views

import "strconv"

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	base := "tag"
	if active {
		base += " tag--active"
	}
	return base
}

func rank(n *int) string {
	if n == nil {
		return "–"
	}
	return strconv.Itoa(*n)
}

func status(draft bool) string {
	if draft {
		return "draft"
	}
	return "published"
}
