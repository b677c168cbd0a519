package services

import (
	"strconv"
	"strings"

	"github.com/ersonp/tankgraph/internal/domain/entities"
)

// Source tables read into a graph are recorded under their content digest.
// A battle log keeps the battle index range it was given the first time,
// and a catalogue remembers how many of its rows were already counted, so
// reading the same table into the same graph again changes nothing.
var (
	sourceRowOffset   = entities.WOT("rowOffset")
	sourceRowCount    = entities.WOT("rowCount")
	sourceRowsCounted = entities.WOT("rowsCounted")
)

func sourceID(digest string) entities.Identifier {
	return entities.IdentifierFor(entities.KindSource, digest)
}

// intValue returns the integer stored for (subj, pred).
func (s *IngestionService) intValue(subj, pred entities.Identifier) (int, bool) {
	obj, ok := s.writer.value(subj, pred)
	if !ok {
		return 0, false
	}
	lit, ok := obj.Literal()
	if !ok {
		return 0, false
	}
	v, ok := lit.IntValue()
	return int(v), ok
}

// battleOffset returns the index the battle keys of a log start from. A log
// seen before keeps its offset; a new log starts after every battle index
// in use. Without a digest keys are plain row indexes.
func (s *IngestionService) battleOffset(digest string, rows int) int {
	if digest == "" {
		return 0
	}
	src := sourceID(digest)
	if offset, ok := s.intValue(src, sourceRowOffset); ok {
		return offset
	}

	offset := s.nextBattleIndex()
	s.store.Assert(src, sourceRowOffset, entities.Lit(entities.Int(int64(offset))))
	s.store.Assert(src, sourceRowCount, entities.Lit(entities.Int(int64(rows))))
	return offset
}

// nextBattleIndex is one past the highest battle index in use, counting
// the whole range reserved by every recorded log.
func (s *IngestionService) nextBattleIndex() int {
	next := 0

	battle := entities.IRI(entities.KindBattle.Class())
	for t := range s.store.AllMatching(nil, &entities.RDFType, &battle) {
		tag, key, ok := strings.Cut(t.Subject.LocalName(), "_")
		if !ok || tag != entities.KindBattle.Tag() {
			continue
		}
		if n, err := strconv.Atoi(key); err == nil && n >= next {
			next = n + 1
		}
	}

	for t := range s.store.AllMatching(nil, &sourceRowOffset, nil) {
		offset, _ := s.intValue(t.Subject, sourceRowOffset)
		rows, _ := s.intValue(t.Subject, sourceRowCount)
		next = max(next, offset+rows)
	}
	return next
}

// countedCatalogueRows returns how many leading rows of a catalogue were
// counted by earlier sessions and records that the first n are counted now.
func (s *IngestionService) countedCatalogueRows(digest string, n int) int {
	if digest == "" {
		return 0
	}
	src := sourceID(digest)
	counted, _ := s.intValue(src, sourceRowsCounted)
	if n > counted {
		s.store.Replace(src, sourceRowsCounted, entities.Lit(entities.Int(int64(n))))
	}
	return counted
}
