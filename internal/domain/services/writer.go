package services

import (
	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/domain/ports"
	"github.com/ersonp/tankgraph/internal/errors"
)

// graphWriter asserts triples after checking that the predicate applies to
// the subject's kind.
type graphWriter struct {
	store ports.GraphStore
}

func (w graphWriter) checkDomain(subj, pred entities.Identifier) error {
	prop, ok := entities.PropertyFor(pred)
	if !ok {
		return nil
	}
	kind, ok := entities.KindOf(subj)
	if !ok {
		return nil
	}
	if !prop.AppliesTo(kind) {
		return errors.Wrapf(errors.ErrTypeMismatch, "%s does not apply to %s %s", prop.Name, kind, subj.LocalName())
	}
	return nil
}

// replace sets the single value of a property, last writer wins.
func (w graphWriter) replace(subj, pred entities.Identifier, obj entities.Term) error {
	if err := w.checkDomain(subj, pred); err != nil {
		return err
	}
	w.store.Replace(subj, pred, obj)
	return nil
}

// unique asserts a single-valued property and fails on a differing value.
func (w graphWriter) unique(subj, pred entities.Identifier, obj entities.Term) error {
	if err := w.checkDomain(subj, pred); err != nil {
		return err
	}
	if _, err := w.store.AssertUnique(subj, pred, obj); err != nil {
		return errors.Wrapf(err, "%s %s", subj.LocalName(), pred.LocalName())
	}
	return nil
}

// add asserts a multi-valued fact.
func (w graphWriter) add(subj, pred entities.Identifier, obj entities.Term) error {
	if err := w.checkDomain(subj, pred); err != nil {
		return err
	}
	w.store.Assert(subj, pred, obj)
	return nil
}

// typeOnce types an entity unless it already has a type. It reports
// whether the entity was created.
func (w graphWriter) typeOnce(subj, class entities.Identifier) bool {
	if w.store.Contains(subj, entities.RDFType) {
		return false
	}
	w.store.Assert(subj, entities.RDFType, entities.IRI(class))
	return true
}

// value returns the first object stored for (subj, pred).
func (w graphWriter) value(subj, pred entities.Identifier) (entities.Term, bool) {
	for t := range w.store.AllMatching(&subj, &pred, nil) {
		return t.Object, true
	}
	return entities.Term{}, false
}
