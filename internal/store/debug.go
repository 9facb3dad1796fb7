package store

import (
	"bufio"
	"sort"
)

// DebugDump writes a deterministic, human-readable snapshot of every key in
// the store to w: one line per kv entry, one line per hash field (fields
// sorted), one line per set member (members sorted by hash). Grounded on
// cc-backend's Level.debugDump, adapted from a JSON metric tree to a flat
// line-oriented dump of this store's three collections — used by the
// admin debug endpoint.
func (s *Store) DebugDump(w *bufio.Writer) error {
	if err := s.dumpKV(w); err != nil {
		return err
	}
	if err := s.dumpHashes(w); err != nil {
		return err
	}
	if err := s.dumpSets(w); err != nil {
		return err
	}
	return w.Flush()
}

func (s *Store) dumpKV(w *bufio.Writer) error {
	for _, sh := range s.kv {
		sh.lock.RLock()
		keys := make([]string, 0, len(sh.data))
		for k := range sh.data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := sh.data[k]
			if _, err := w.WriteString("kv " + k + " = " + v.String() + "\n"); err != nil {
				sh.lock.RUnlock()
				return err
			}
		}
		sh.lock.RUnlock()
	}
	return nil
}

func (s *Store) dumpHashes(w *bufio.Writer) error {
	for _, sh := range s.hmap {
		sh.lock.RLock()
		keys := make([]string, 0, len(sh.data))
		for k := range sh.data {
			keys = append(keys, k)
		}
		sh.lock.RUnlock()
		sort.Strings(keys)

		for _, k := range keys {
			pairs, ok := s.HGetAll(k, true)
			if !ok {
				continue
			}
			for _, p := range pairs {
				if _, err := w.WriteString("hash " + k + "." + p.Field + " = " + p.Value.String() + "\n"); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Store) dumpSets(w *bufio.Writer) error {
	for _, sh := range s.sets {
		sh.lock.RLock()
		keys := make([]string, 0, len(sh.data))
		for k := range sh.data {
			keys = append(keys, k)
		}
		sh.lock.RUnlock()
		sort.Strings(keys)

		for _, k := range keys {
			members, ok := s.SMembers(k)
			if !ok {
				continue
			}
			sort.Slice(members, func(i, j int) bool { return members[i].Hash() < members[j].Hash() })
			for _, m := range members {
				if _, err := w.WriteString("set " + k + " has " + m.String() + "\n"); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
