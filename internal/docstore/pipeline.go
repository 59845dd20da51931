package docstore

// Stage is one step of an aggregation pipeline.
type Stage interface {
	stage()
}

// Pipeline is an ordered list of stages.
type Pipeline []Stage

// Match keeps documents satisfying Filter.
type Match struct {
	Filter Filter
}

// Lookup joins documents of collection From whose ForeignField equals the
// local document's LocalField, storing them as an array under As.
// A local value that is missing or not a scalar joins nothing.
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
}

// Unwind flattens the array under the top-level field Path into one
// document per element. With PreserveMissing a document whose array is
// empty or missing is kept with the field removed.
type Unwind struct {
	Path            string
	PreserveMissing bool
}

// Project reshapes each document to exactly the listed fields.
type Project struct {
	Fields []ProjectField
}

// ProjectField copies the value at Path into the output field As.
type ProjectField struct {
	As   string
	Path string
}

// Skip drops the first N documents.
type Skip struct {
	N int64
}

// Limit keeps at most N documents.
type Limit struct {
	N int64
}

// Count replaces the stream with a single document {As: n}. An empty
// stream produces no document.
type Count struct {
	As string
}

func (Match) stage()   {}
func (Lookup) stage()  {}
func (Unwind) stage()  {}
func (Project) stage() {}
func (Skip) stage()    {}
func (Limit) stage()   {}
func (Count) stage()   {}

// Keep projects each field under its own name.
func Keep(fields ...string) []ProjectField {
	out := make([]ProjectField, len(fields))
	for i, f := range fields {
		out[i] = ProjectField{As: f, Path: f}
	}
	return out
}

// Rename projects path under a new name.
func Rename(as, path string) ProjectField {
	return ProjectField{As: as, Path: path}
}
