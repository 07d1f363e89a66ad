package endpoints

import (
	"fmt"

	"github.com/jackzampolin/dossier/internal/document"
	"github.com/jackzampolin/dossier/internal/engine"
)

// PageView is a page as returned by the API.
type PageView struct {
	ID           string `json:"id"`
	GroupID      string `json:"group_id"`
	SourceName   string `json:"source_name"`
	Number       int    `json:"number"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// GroupView is a group as returned by the API.
type GroupView struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Type                 string     `json:"type"`
	IncludeSeparatorPage bool       `json:"include_separator_page"`
	IsStatic             bool       `json:"is_static"`
	Expanded             bool       `json:"expanded"`
	PageCount            int        `json:"page_count"`
	Pages                []PageView `json:"pages"`
}

// SessionView is a session with its full group list.
type SessionView struct {
	engine.SessionInfo
	OutputPages          int         `json:"output_pages"`
	OutputPagesWithCover int         `json:"output_pages_with_cover"`
	GroupList            []GroupView `json:"group_list"`
}

func newGroupView(sessionID string, g document.Group) GroupView {
	v := GroupView{
		ID:                   g.ID,
		Title:                g.Title,
		Type:                 string(g.Type),
		IncludeSeparatorPage: g.IncludeSeparatorPage,
		IsStatic:             g.IsStatic,
		Expanded:             g.Expanded,
		PageCount:            len(g.Pages),
		Pages:                make([]PageView, 0, len(g.Pages)),
	}
	for _, p := range g.Pages {
		pv := PageView{
			ID:         p.ID,
			GroupID:    g.ID,
			SourceName: p.SourceName,
			Number:     p.Number,
		}
		if len(p.Thumbnail) > 0 {
			pv.ThumbnailURL = thumbnailPath(sessionID, g.ID, p.ID)
		}
		v.Pages = append(v.Pages, pv)
	}
	return v
}

func newSessionView(e *engine.Engine) SessionView {
	snap := e.Snapshot()
	v := SessionView{
		SessionInfo:          engine.Info(e),
		OutputPages:          snap.OutputPages(false),
		OutputPagesWithCover: snap.OutputPages(true),
		GroupList:            make([]GroupView, 0, len(snap.Groups)),
	}
	for _, g := range snap.Groups {
		v.GroupList = append(v.GroupList, newGroupView(e.ID(), g))
	}
	return v
}

func sessionPath(sessionID string) string {
	return "/api/sessions/" + sessionID
}

func groupPath(sessionID, groupID string) string {
	return fmt.Sprintf("/api/sessions/%s/groups/%s", sessionID, groupID)
}

func thumbnailPath(sessionID, groupID, pageID string) string {
	return fmt.Sprintf("/api/sessions/%s/groups/%s/pages/%s/thumbnail", sessionID, groupID, pageID)
}
