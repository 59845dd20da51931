package docstore

import (
	"context"
	"fmt"
)

// Finder is the read surface Evaluate needs from a backend.
type Finder interface {
	Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error)
}

// Evaluate runs pipeline over collection in process. A leading Match is
// pushed down to the backend's Find; every Lookup issues one batched In
// query against the foreign collection.
func Evaluate(ctx context.Context, f Finder, collection string, pipeline Pipeline) ([]Document, error) {
	var base Filter
	if len(pipeline) > 0 {
		if m, ok := pipeline[0].(Match); ok {
			base = m.Filter
			pipeline = pipeline[1:]
		}
	}

	docs, err := f.Find(ctx, collection, base, FindOptions{})
	if err != nil {
		return nil, err
	}

	for _, st := range pipeline {
		switch s := st.(type) {
		case Match:
			docs = matchDocs(docs, s.Filter)
		case Lookup:
			docs, err = lookupDocs(ctx, f, docs, s)
			if err != nil {
				return nil, err
			}
		case Unwind:
			docs = unwindDocs(docs, s)
		case Project:
			docs = projectDocs(docs, s)
		case Skip:
			docs = skipDocs(docs, s.N)
		case Limit:
			docs = limitDocs(docs, s.N)
		case Count:
			docs = countDocs(docs, s.As)
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedStage, st)
		}
	}
	return docs, nil
}

func matchDocs(docs []Document, filter Filter) []Document {
	out := docs[:0:0]
	for _, d := range docs {
		if filter.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

func lookupDocs(ctx context.Context, f Finder, docs []Document, s Lookup) ([]Document, error) {
	keys := make([]any, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		v, ok := d.Lookup(s.LocalField)
		if !ok {
			continue
		}
		k, ok := scalarKey(v)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, v)
	}

	byKey := make(map[string][]any)
	if len(keys) > 0 {
		foreign, err := f.Find(ctx, s.From, Filter{In(s.ForeignField, keys)}, FindOptions{})
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", s.From, err)
		}
		for _, fd := range foreign {
			v, _ := fd.Lookup(s.ForeignField)
			k, _ := scalarKey(v)
			byKey[k] = append(byKey[k], map[string]any(fd))
		}
	}

	out := make([]Document, len(docs))
	for i, d := range docs {
		joined := []any{}
		if v, ok := d.Lookup(s.LocalField); ok {
			if k, ok := scalarKey(v); ok {
				joined = append(joined, byKey[k]...)
			}
		}
		nd := shallowCopy(d)
		nd[s.As] = joined
		out[i] = nd
	}
	return out, nil
}

func unwindDocs(docs []Document, s Unwind) []Document {
	var out []Document
	for _, d := range docs {
		v, ok := d[s.Path]
		arr, isArr := v.([]any)
		switch {
		case ok && isArr && len(arr) > 0:
			for _, el := range arr {
				nd := shallowCopy(d)
				nd[s.Path] = el
				out = append(out, nd)
			}
		case ok && v != nil && !isArr:
			out = append(out, d)
		case s.PreserveMissing:
			nd := shallowCopy(d)
			delete(nd, s.Path)
			out = append(out, nd)
		}
	}
	return out
}

func projectDocs(docs []Document, s Project) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		nd := make(Document, len(s.Fields))
		for _, pf := range s.Fields {
			if v, ok := d.Lookup(pf.Path); ok {
				nd[pf.As] = v
			}
		}
		out[i] = nd
	}
	return out
}

func skipDocs(docs []Document, n int64) []Document {
	if n <= 0 {
		return docs
	}
	if n >= int64(len(docs)) {
		return nil
	}
	return docs[n:]
}

func limitDocs(docs []Document, n int64) []Document {
	if n <= 0 || n >= int64(len(docs)) {
		return docs
	}
	return docs[:n]
}

func countDocs(docs []Document, as string) []Document {
	if len(docs) == 0 {
		return nil
	}
	return []Document{{as: int64(len(docs))}}
}

func shallowCopy(d Document) Document {
	nd := make(Document, len(d)+1)
	for k, v := range d {
		nd[k] = v
	}
	return nd
}

// PaginateSlice applies FindOptions to an already ordered result.
func PaginateSlice(docs []Document, opts FindOptions) []Document {
	return limitDocs(skipDocs(docs, opts.Skip), opts.Limit)
}
