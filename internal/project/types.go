package project

import "time"

// Project is the domain resource whose state changes are published downstream.
type Project struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Archived    bool              `json:"archived"`
	Files       []GeneratedFile   `json:"files,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Clone returns a deep copy. The service hands clones across its API
// boundary so callers never share a struct with the store.
func (p *Project) Clone() *Project {
	c := *p
	if p.Tags != nil {
		c.Tags = make(map[string]string, len(p.Tags))
		for k, v := range p.Tags {
			c.Tags[k] = v
		}
	}
	if p.Files != nil {
		c.Files = append([]GeneratedFile(nil), p.Files...)
	}
	return &c
}

// GeneratedFile describes one entry in a project's generated-file set.
type GeneratedFile struct {
	Path      string `json:"path"`
	SHA256    string `json:"sha256,omitempty"`
	SizeBytes int64  `json:"sizeBytes"`
}

// CreateRequest is the payload for creating a project.
type CreateRequest struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// UpdateRequest is the payload for updating project metadata.
// Nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// FilesRequest replaces a project's generated-file set.
type FilesRequest struct {
	Files []GeneratedFile `json:"files"`
}

// ListResponse wraps the project list.
type ListResponse struct {
	Projects []*Project `json:"projects"`
}
