package handler

import (
	productionapp "github.com/erp/production/internal/application/production"
	"github.com/erp/production/internal/domain/document"
)

// DocumentInput is a document attached to a request. Either content (base64
// in JSON) is supplied for a new upload, or locator names a document that is
// already stored and should be kept.
type DocumentInput struct {
	FileName    string `json:"file_name" binding:"required_without=Locator"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content" binding:"required_without=Locator"`
	Locator     string `json:"locator"`
}

func (d DocumentInput) toUpload() document.Upload {
	return document.Upload{FileName: d.FileName, ContentType: d.ContentType, Content: d.Content}
}

func (d *DocumentInput) toSlot() *productionapp.DocumentSlot {
	if d == nil {
		return nil
	}
	if d.Locator != "" {
		return &productionapp.DocumentSlot{Keep: &document.Ref{
			Locator:     d.Locator,
			FileName:    d.FileName,
			ContentType: d.ContentType,
		}}
	}
	upload := d.toUpload()
	return &productionapp.DocumentSlot{Upload: &upload}
}

func toUploads(in []DocumentInput) []document.Upload {
	if len(in) == 0 {
		return nil
	}
	out := make([]document.Upload, len(in))
	for i, d := range in {
		out[i] = d.toUpload()
	}
	return out
}
