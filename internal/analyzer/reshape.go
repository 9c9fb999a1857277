package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/sozercan/idea-mapper/apimodels"
)

// object is one decoded JSON object of the model's reply together with its
// path, used to report where validation failed.
type object struct {
	path   string
	fields map[string]json.RawMessage
}

// Reshape parses a (possibly fenced) completion and maps the model's
// PascalCase schema onto the UI schema. Any missing key or value of the
// wrong shape fails the whole reshape; no partial result is returned.
func Reshape(raw string) (*apimodels.Analysis, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}

	root, err := decodeObject("$", json.RawMessage(payload))
	if err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}

	analysis, err := reshapeRoot(root)
	if err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	return analysis, nil
}

func reshapeRoot(root *object) (*apimodels.Analysis, error) {
	core, err := root.child("CoreIdeas")
	if err != nil {
		return nil, err
	}

	var out apimodels.Analysis
	if out.CoreIdeas.MainIdeas, err = mapArray(core, "MainIdeas", toIdea("ID")); err != nil {
		return nil, err
	}
	if out.CoreIdeas.SupportingIdeas, err = mapArray(core, "SupportingIdeas", toLinkedIdea); err != nil {
		return nil, err
	}
	if out.CoreIdeas.ContextualElements, err = mapArray(core, "ContextualElements", toIdea("ID")); err != nil {
		return nil, err
	}
	if out.CoreIdeas.Counterpoints, err = mapArray(core, "Counterpoints", toLinkedIdea); err != nil {
		return nil, err
	}
	if out.CoreIdeas.RelationshipsBetweenMainIdeas, err = mapArray(root, "RelationshipsBetweenMainIdeas", toIdeaRelationship); err != nil {
		return nil, err
	}
	if out.Relationships.Items, err = mapArray(root, "Relationships", toRelationship); err != nil {
		return nil, err
	}
	if out.Analogies.Items, err = mapArray(root, "Analogies", toAnalogy); err != nil {
		return nil, err
	}

	insights, err := root.child("UpdatedInsights")
	if err != nil {
		return nil, err
	}
	if out.Insights.Evolution, err = insights.value("EvolutionOfIdeas"); err != nil {
		return nil, err
	}
	if out.Insights.KeyTakeaways, err = insights.value("KeyTakeaways"); err != nil {
		return nil, err
	}
	if out.Insights.Tradeoffs, err = insights.value("TradeoffsOrRisks"); err != nil {
		return nil, err
	}
	if out.Insights.BroaderThemes, err = insights.value("BroaderThemes"); err != nil {
		return nil, err
	}

	return &out, nil
}

func toIdea(idKey string) func(*object) (apimodels.Idea, error) {
	return func(o *object) (apimodels.Idea, error) {
		var (
			idea apimodels.Idea
			err  error
		)
		if idea.ID, err = o.text(idKey); err != nil {
			return idea, err
		}
		idea.Content, err = o.text("Description")
		return idea, err
	}
}

func toLinkedIdea(o *object) (apimodels.LinkedIdea, error) {
	var (
		idea apimodels.LinkedIdea
		err  error
	)
	if idea.MainIdeaID, err = o.text("MainIdeaID"); err != nil {
		return idea, err
	}
	idea.Content, err = o.text("Description")
	return idea, err
}

func toIdeaRelationship(o *object) (apimodels.IdeaRelationship, error) {
	var (
		rel apimodels.IdeaRelationship
		err error
	)
	if rel.Idea1, err = o.text("MainIdea1"); err != nil {
		return rel, err
	}
	if rel.Idea2, err = o.text("MainIdea2"); err != nil {
		return rel, err
	}
	if rel.Type, err = o.text("Type"); err != nil {
		return rel, err
	}
	rel.Description, err = o.text("Description")
	return rel, err
}

func toRelationship(o *object) (apimodels.Relationship, error) {
	var (
		rel apimodels.Relationship
		err error
	)
	if rel.Type, err = o.text("Type"); err != nil {
		return rel, err
	}
	rel.Description, err = o.text("Description")
	return rel, err
}

func toAnalogy(o *object) (apimodels.Analogy, error) {
	var (
		analogy apimodels.Analogy
		err     error
	)
	if analogy.ID, err = o.text("AnalogyID"); err != nil {
		return analogy, err
	}
	if analogy.Comparison, err = o.text("Comparison"); err != nil {
		return analogy, err
	}
	if analogy.Support, err = o.text("SupportForMainIdea"); err != nil {
		return analogy, err
	}
	analogy.Implications, err = o.text("ImplicationsOrRisks")
	return analogy, err
}

// mapArray maps every element of the array at key, keeping input order.
// The result is never nil so empty sections encode as [].
func mapArray[T any](parent *object, key string, fn func(*object) (T, error)) ([]T, error) {
	path := parent.path + "." + key
	raw, err := parent.value(key)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, &schemaError{Path: path, Problem: "expected array, got null"}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &schemaError{Path: path, Problem: "expected array, got " + kindOf(raw)}
	}

	out := make([]T, 0, len(elems))
	for i, elem := range elems {
		o, err := decodeObject(fmt.Sprintf("%s[%d]", path, i), elem)
		if err != nil {
			return nil, err
		}
		item, err := fn(o)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func decodeObject(path string, raw json.RawMessage) (*object, error) {
	if isNull(raw) {
		return nil, &schemaError{Path: path, Problem: "expected object, got null"}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		if path == "$" {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return nil, &schemaError{Path: path, Problem: "expected object, got " + kindOf(raw)}
	}
	return &object{path: path, fields: fields}, nil
}

// value returns the raw value at key. The key must be present.
func (o *object) value(key string) (json.RawMessage, error) {
	raw, ok := o.fields[key]
	if !ok {
		return nil, &schemaError{Path: o.path + "." + key, Problem: "missing key"}
	}
	return raw, nil
}

func (o *object) child(key string) (*object, error) {
	raw, err := o.value(key)
	if err != nil {
		return nil, err
	}
	return decodeObject(o.path+"."+key, raw)
}

func (o *object) text(key string) (string, error) {
	raw, err := o.value(key)
	if err != nil {
		return "", err
	}
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return "", &schemaError{Path: o.path + "." + key, Problem: "expected string, got " + kindOf(raw)}
	}
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func kindOf(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "nothing"
	}
	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
