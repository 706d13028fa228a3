package httpapi

import (
	"time"

	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/dmitrijs2005/datingapp/internal/server/services"
)

type registerRequest struct {
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required,min=4,max=64"`
	KnownAs     string `json:"knownAs"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female"`
	DateOfBirth string `json:"dateOfBirth"`
	City        string `json:"city"`
	Country     string `json:"country"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Token        string `json:"token" validate:"required"`
	RefreshToken string `json:"refreshToken"`
}

type userDto struct {
	Username     string `json:"username"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	PhotoURL     string `json:"photoUrl,omitempty"`
	KnownAs      string `json:"knownAs"`
	Gender       string `json:"gender"`
}

func toUserDto(s *services.Session) userDto {
	return userDto{
		Username:     s.User.UserName,
		Token:        s.AccessToken,
		RefreshToken: s.RefreshToken,
		PhotoURL:     s.User.MainPhotoURL,
		KnownAs:      s.User.KnownAs,
		Gender:       s.User.Gender,
	}
}

type photoDto struct {
	ID     int64  `json:"id"`
	URL    string `json:"url"`
	IsMain bool   `json:"isMain"`
}

func toPhotoDto(p *models.Photo) photoDto {
	return photoDto{ID: p.ID, URL: p.URL, IsMain: p.IsMain}
}

type memberDto struct {
	ID           string     `json:"id"`
	Username     string     `json:"userName"`
	PhotoURL     string     `json:"photoUrl,omitempty"`
	Age          int        `json:"age"`
	KnownAs      string     `json:"knownAs"`
	Created      time.Time  `json:"created"`
	LastActive   time.Time  `json:"lastActive"`
	Gender       string     `json:"gender"`
	Introduction string     `json:"introduction"`
	LookingFor   string     `json:"lookingFor"`
	Interests    string     `json:"interests"`
	City         string     `json:"city"`
	Country      string     `json:"country"`
	Photos       []photoDto `json:"photos"`
}

func toMemberDto(u *models.User, now time.Time) memberDto {
	photos := make([]photoDto, 0, len(u.Photos))
	for _, p := range u.Photos {
		photos = append(photos, toPhotoDto(p))
	}
	return memberDto{
		ID:           u.ID,
		Username:     u.UserName,
		PhotoURL:     u.MainPhotoURL,
		Age:          u.Age(now),
		KnownAs:      u.KnownAs,
		Created:      u.CreatedAt,
		LastActive:   u.LastActive,
		Gender:       u.Gender,
		Introduction: u.Introduction,
		LookingFor:   u.LookingFor,
		Interests:    u.Interests,
		City:         u.City,
		Country:      u.Country,
		Photos:       photos,
	}
}

type memberUpdateRequest struct {
	Introduction string `json:"introduction"`
	LookingFor   string `json:"lookingFor"`
	Interests    string `json:"interests"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

type createMessageRequest struct {
	RecipientUsername string `json:"recipientUsername" validate:"required"`
	Content           string `json:"content" validate:"required"`
}

type messageDto struct {
	ID                int64      `json:"id"`
	SenderID          string     `json:"senderId"`
	SenderUsername    string     `json:"senderUsername"`
	SenderPhotoURL    string     `json:"senderPhotoUrl,omitempty"`
	RecipientID       string     `json:"recipientId"`
	RecipientUsername string     `json:"recipientUsername"`
	RecipientPhotoURL string     `json:"recipientPhotoUrl,omitempty"`
	Content           string     `json:"content"`
	DateRead          *time.Time `json:"dateRead,omitempty"`
	MessageSent       time.Time  `json:"messageSent"`
}

func toMessageDto(m *models.Message) messageDto {
	return messageDto{
		ID:                m.ID,
		SenderID:          m.SenderID,
		SenderUsername:    m.SenderUsername,
		SenderPhotoURL:    m.SenderPhotoURL,
		RecipientID:       m.RecipientID,
		RecipientUsername: m.RecipientUsername,
		RecipientPhotoURL: m.RecipientPhotoURL,
		Content:           m.Content,
		DateRead:          m.DateRead,
		MessageSent:       m.MessageSent,
	}
}

func toMessageDtos(ms []*models.Message) []messageDto {
	out := make([]messageDto, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMessageDto(m))
	}
	return out
}

type userWithRolesDto struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

type paginationHeader struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
}

func pageHeader[T any](p *models.Page[T]) paginationHeader {
	return paginationHeader{
		CurrentPage:  p.CurrentPage,
		ItemsPerPage: p.PageSize,
		TotalItems:   p.TotalCount,
		TotalPages:   p.TotalPages(),
	}
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}
