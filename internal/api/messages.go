package api

import (
	"github.com/wolfeidau/sitefront/internal/content"
	"github.com/wolfeidau/sitefront/internal/site"
)

const (
	ServiceName = "site.v1.SiteService"

	ResolveTenantProcedure     = "/" + ServiceName + "/ResolveTenant"
	GetAppShellProcedure       = "/" + ServiceName + "/GetAppShell"
	GetPageProcedure           = "/" + ServiceName + "/GetPage"
	ListPagesProcedure         = "/" + ServiceName + "/ListPages"
	GetSectionContentProcedure = "/" + ServiceName + "/GetSectionContent"
	GetSectionItemsProcedure   = "/" + ServiceName + "/GetSectionItems"
)

// TenantRef selects a tenant either by an explicit key or by the host the
// resolver maps to a key. Tenant wins when both are set.
type TenantRef struct {
	Host   string `json:"host,omitempty"`
	Tenant string `json:"tenant,omitempty"`
}

type ResolveTenantRequest struct {
	Host string `json:"host"`
}

type ResolveTenantResponse struct {
	Tenant string `json:"tenant"`
	Rule   string `json:"rule"`
}

type GetAppShellRequest struct {
	TenantRef
}

type GetAppShellResponse = site.AppShell

type GetPageRequest struct {
	TenantRef
	// Slug defaults to "home".
	Slug string `json:"slug,omitempty"`
}

type GetPageResponse = site.PageData

type ListPagesRequest struct {
	TenantRef
}

type ListPagesResponse struct {
	Pages []content.Record `json:"pages"`
}

type GetSectionRequest struct {
	TenantRef
	SectionID string `json:"sectionId"`
}

type GetSectionContentResponse struct {
	Content content.Record `json:"content"`
}

type GetSectionItemsResponse struct {
	Items []content.Record `json:"items"`
}
