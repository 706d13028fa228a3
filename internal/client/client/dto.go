package client

import "time"

type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	KnownAs     string `json:"knownAs,omitempty"`
	Gender      string `json:"gender,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
}

// User is the session returned by register, login and refresh.
type User struct {
	Username     string `json:"username"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	PhotoURL     string `json:"photoUrl"`
	KnownAs      string `json:"knownAs"`
	Gender       string `json:"gender"`
}

type Photo struct {
	ID     int64  `json:"id"`
	URL    string `json:"url"`
	IsMain bool   `json:"isMain"`
}

type Member struct {
	ID         string    `json:"id"`
	Username   string    `json:"userName"`
	PhotoURL   string    `json:"photoUrl"`
	Age        int       `json:"age"`
	KnownAs    string    `json:"knownAs"`
	LastActive time.Time `json:"lastActive"`
	City       string    `json:"city"`
	Country    string    `json:"country"`
	Photos     []Photo   `json:"photos"`
}

type Message struct {
	ID                int64      `json:"id"`
	SenderUsername    string     `json:"senderUsername"`
	RecipientUsername string     `json:"recipientUsername"`
	Content           string     `json:"content"`
	DateRead          *time.Time `json:"dateRead"`
	MessageSent       time.Time  `json:"messageSent"`
}

type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
}
