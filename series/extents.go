package series

import "smconv/webmap"

// FillMissingExtents copies view extents between neighboring webmap entries
// when the classic story kept its maps in sync: an entry without its own
// extent inherits from the immediate previous entry, then from the immediate
// next one. Previous entries are already filled, so a run of missing extents
// propagates forward. Without maps-sync entries are left alone, each map
// falls back to its own stored view.
func (s *Series) FillMissingExtents() {
	if !s.MapsSync {
		return
	}

	for i := range s.Entries {
		wm := s.Entries[i].Media.Webmap
		if wm == nil || wm.Extent != nil {
			continue
		}
		if e := neighborExtent(s.Entries, i); e != nil {
			cp := *e
			wm.Extent = &cp
		}
	}
}

func neighborExtent(entries []Entry, i int) *webmap.Extent {
	if i > 0 {
		if e := entryExtent(entries[i-1]); e != nil {
			return e
		}
	}
	if i < len(entries)-1 {
		if e := entryExtent(entries[i+1]); e != nil {
			return e
		}
	}
	return nil
}

func entryExtent(e Entry) *webmap.Extent {
	if e.Media.Webmap == nil {
		return nil
	}
	return e.Media.Webmap.Extent
}
