package link

import "sort"

func Sorted(links []Link) []Link {
	out := make([]Link, len(links))
	copy(out, links)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func Active(links []Link) []Link {
	return filter(Sorted(links), func(l Link) bool { return l.IsActive })
}

func Buttons(links []Link) []Link {
	return filter(links, func(l Link) bool { return l.LinkType == TypeButton })
}

func Plain(links []Link) []Link {
	return filter(links, func(l Link) bool { return l.LinkType == TypeLink })
}

func Find(links []Link, id int64) (Link, bool) {
	for _, l := range links {
		if l.ID == id {
			return l, true
		}
	}
	return Link{}, false
}

// MoveSwap returns the two reorder entries that swap the link with its
// neighbour in position order. ok is false at either end or for unknown ids.
func MoveSwap(links []Link, id int64, dir Direction) (swap []Reorder, ok bool) {
	sorted := Sorted(links)
	cur := -1
	for i, l := range sorted {
		if l.ID == id {
			cur = i
			break
		}
	}
	if cur == -1 {
		return nil, false
	}
	next := cur + 1
	if dir == Up {
		next = cur - 1
	}
	if next < 0 || next >= len(sorted) {
		return nil, false
	}
	return []Reorder{
		{LinkID: sorted[cur].ID, NewPosition: next},
		{LinkID: sorted[next].ID, NewPosition: cur},
	}, true
}

func Replace(links []Link, updated Link) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if l.ID == updated.ID {
			out = append(out, updated)
			continue
		}
		out = append(out, l)
	}
	return out
}

func Remove(links []Link, id int64) []Link {
	return filter(links, func(l Link) bool { return l.ID != id })
}

func filter(links []Link, keep func(Link) bool) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
