package core

// NormalizeHistoryWindow applies the configured default and ceiling to a
// requested page size. Any negative cursor is treated as NoCursor.
//
// Before is exclusive and has millisecond resolution: when a page ends in
// the middle of trackers that started in the same millisecond, the next page
// skips the rest of them.
func NormalizeHistoryWindow(before int64, maxResults int, cfg HistoryConfig) HistoryWindow {
	ceiling := cfg.MaxResultsCeiling
	if ceiling <= 0 {
		ceiling = DefaultHistoryMaxResults
	}
	limit := maxResults
	if limit <= 0 {
		limit = cfg.DefaultMaxResults
	}
	if limit <= 0 || limit > ceiling {
		limit = ceiling
	}
	if before < 0 {
		before = NoCursor
	}
	return HistoryWindow{Before: before, Limit: limit}
}

// Includes reports whether a tracker belongs to the window ignoring the
// limit. Unstarted trackers never do.
func (w HistoryWindow) Includes(t Tracker) bool {
	if t.SyncStart == nil {
		return false
	}
	if w.Before == NoCursor {
		return true
	}
	return t.SyncStart.UnixMilli() < w.Before
}
