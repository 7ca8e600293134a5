package storage

import (
	"sort"
	"strconv"
)

const (
	defaultListLimit = 20
	maxListLimit     = 1000
)

// parseWindow reads the cursor and limit query arguments. Missing, non-numeric,
// zero or negative values fall back to the defaults; limit is capped at
// maxListLimit.
func parseWindow(cursorArg, limitArg string) (cursor, limit int) {
	cursor, err := strconv.Atoi(cursorArg)
	if err != nil || cursor < 0 {
		cursor = 0
	}
	limit, err = strconv.Atoi(limitArg)
	if err != nil || limit <= 0 {
		limit = defaultListLimit
	}
	return cursor, min(limit, maxListLimit)
}

// sortDirectoriesFirst moves directories ahead of files and keeps the backend
// order within each group.
func sortDirectoriesFirst(entries []MediaEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return !entries[i].IsFile && entries[j].IsFile
	})
}

// paginate cuts the [cursor, cursor+limit) window out of sorted entries.
func paginate(entries []MediaEntry, cursor, limit int) *ListPage {
	page := emptyListPage()

	// cursor and limit may be arbitrarily large, never add them
	start := min(max(cursor, 0), len(entries))
	end := start + min(max(limit, 0), len(entries)-start)
	for _, entry := range entries[start:end] {
		if entry.IsFile {
			page.Files = append(page.Files, entry)
		} else {
			page.Directories = append(page.Directories, entry.Filename)
		}
	}

	if end < len(entries) {
		next := strconv.Itoa(end)
		page.Cursor = &next
	}
	return page
}
