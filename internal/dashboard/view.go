package dashboard

import (
	"resume-portal/internal/files"
	"resume-portal/internal/processor"
)

// Screen selects the top-level page.
type Screen string

const (
	ScreenAuth      Screen = "auth"
	ScreenDashboard Screen = "dashboard"
)

// Level classifies a status line. Info lines stay until replaced; the rest
// clear themselves after the controller's ClearAfter.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Region names a part of the view that carries its own status line.
type Region string

const (
	RegionAuth      Region = "auth"
	RegionCredits   Region = "credits"
	RegionUpload    Region = "upload"
	RegionFiles     Region = "files"
	RegionProcess   Region = "process"
	RegionArtifacts Region = "artifacts"
	RegionFetch     Region = "fetch"
)

// Status is one region's message.
type Status struct {
	Level Level  `json:"level,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Empty reports whether nothing should be shown.
func (s Status) Empty() bool { return s.Text == "" }

// ProcessForm echoes the processor inputs so a failed attempt keeps them.
type ProcessForm struct {
	ResumeURL         string `json:"resumeUrl"`
	JobDescriptionURL string `json:"jobDescriptionUrl"`
}

// View is an immutable snapshot of everything the page renders.
type View struct {
	Version uint64 `json:"version"`
	Screen  Screen `json:"screen"`
	UserID  string `json:"userId,omitempty"`
	Email   string `json:"email,omitempty"`

	BalanceKnown   bool    `json:"balanceKnown"`
	Balance        float64 `json:"balance"`
	CanUpload      bool    `json:"canUpload"`
	CreditsMessage string  `json:"creditsMessage,omitempty"`
	Uploading      bool    `json:"uploading"`

	Files         []files.Entry `json:"files"`
	FilesMessage  string        `json:"filesMessage,omitempty"`
	ResumeOptions []files.Entry `json:"resumeOptions"`
	PendingDelete *files.Entry  `json:"pendingDelete,omitempty"`
	DeletePrompt  string        `json:"deletePrompt,omitempty"`
	Deleting      bool          `json:"deleting"`
	Alert         string        `json:"alert,omitempty"`

	Form       ProcessForm               `json:"form"`
	Processing bool                      `json:"processing"`
	CanProcess bool                      `json:"canProcess"`
	Artifacts  []processor.ArtifactGroup `json:"artifacts"`

	FetchResult string `json:"fetchResult,omitempty"`

	Statuses map[Region]Status `json:"statuses"`
}

// SignedOutView is what a browser without a session sees: the auth screen
// with nothing loaded.
func SignedOutView() View {
	return View{
		Screen:        ScreenAuth,
		Files:         []files.Entry{},
		ResumeOptions: []files.Entry{},
		Artifacts:     []processor.ArtifactGroup{},
		Statuses:      map[Region]Status{},
		CanProcess:    true,
	}
}

// Status returns the message for region.
func (v View) Status(r Region) Status {
	return v.Statuses[r]
}

// SignedIn reports whether the view belongs to a session.
func (v View) SignedIn() bool {
	return v.Screen == ScreenDashboard
}

func (v View) clone() View {
	out := v
	out.Files = append([]files.Entry(nil), v.Files...)
	out.ResumeOptions = append([]files.Entry(nil), v.ResumeOptions...)
	if v.PendingDelete != nil {
		pd := *v.PendingDelete
		out.PendingDelete = &pd
	}
	out.Artifacts = make([]processor.ArtifactGroup, len(v.Artifacts))
	for i, g := range v.Artifacts {
		out.Artifacts[i] = processor.ArtifactGroup{Title: g.Title, Links: append([]processor.Artifact(nil), g.Links...)}
	}
	out.Statuses = make(map[Region]Status, len(v.Statuses))
	for k, s := range v.Statuses {
		out.Statuses[k] = s
	}
	return out
}
