package fscache

import (
	"os"

	"github.com/gobwas/glob"
)

// Clear deletes every entry in the directory and empties the shadow cache.
// It keeps going after individual failures and reports false if any
// occurred.
func (s *Store) Clear() bool {
	return s.DeleteByPattern("*")
}

// DeleteByPattern deletes every file in the directory whose name matches
// pattern. Patterns support '*', '?', character classes and brace
// alternation such as "user_{1,2}.*". Matching is done on bare file names,
// so a pattern can never reach outside the directory. Shadow cache entries
// matching the pattern are dropped even when no file exists for them.
//
// It reports false for a malformed pattern, an unreadable directory or any
// failed deletion; the remaining matches are still attempted.
func (s *Store) DeleteByPattern(pattern string) bool {
	g, err := glob.Compile(pattern)
	if err != nil {
		s.log.Error(err, "invalid pattern", "pattern", pattern)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Error(err, "listing cache directory failed", "dir", s.dir)
		return false
	}

	ok := true
	for _, de := range entries {
		if !g.Match(de.Name()) {
			continue
		}
		if s.remove(de.Name()) {
			s.observe(EventDelete)
		} else {
			s.observe(EventDeleteFailed)
			ok = false
		}
	}

	for key := range s.shadow {
		if g.Match(key) {
			delete(s.shadow, key)
		}
	}
	return ok
}
