package common

// AuthorizationHeaderName carries "Bearer <access token>" on API requests.
const AuthorizationHeaderName = "Authorization"

// AccessTokenQueryName is used by websocket clients that cannot set headers.
const AccessTokenQueryName = "access_token"

// PaginationHeaderName holds the JSON encoded paging metadata of list responses.
const PaginationHeaderName = "Pagination"

// Role names.
const (
	RoleMember    = "Member"
	RoleModerator = "Moderator"
	RoleAdmin     = "Admin"
)
