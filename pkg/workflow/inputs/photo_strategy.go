package inputs

import "github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"

type photoStrategy struct {
	name     string
	optional bool
}

// NewPhotoStrategy accepts a photo. The Value is the botport.FileHandle to ingest.
func NewPhotoStrategy(name string, optional bool) Strategy {
	return &photoStrategy{name: name, optional: optional}
}

func (p *photoStrategy) Name() string { return p.name }

func (p *photoStrategy) Accept(in Input) Result {
	if in.Source == SourcePhoto && in.Photo != nil {
		return accept(*in.Photo)
	}
	if p.optional {
		if in.IsSkip() {
			return Result{Advance: true, Value: "", Skipped: true}
		}
		return reject(msgOptionalPhoto)
	}
	return reject(msgPhotoExpected)
}

type galleryStrategy struct{}

// NewGalleryStrategy collects photos until /done. Each photo yields a Value
// without advancing; /done advances with Done set.
func NewGalleryStrategy() Strategy { return &galleryStrategy{} }

func (g *galleryStrategy) Name() string { return TypeGallery }

func (g *galleryStrategy) Accept(in Input) Result {
	if in.Source == SourcePhoto && in.Photo != nil {
		return Result{Value: *in.Photo}
	}
	if in.IsDone() {
		return Result{Advance: true, Done: true}
	}
	return reject(msgGallery)
}

// Photo extracts the file handle carried by an accepted photo result.
func Photo(r Result) (botport.FileHandle, bool) {
	h, ok := r.Value.(botport.FileHandle)
	return h, ok
}
