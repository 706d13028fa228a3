package memory

// Repositories returned by these accessors share the store.

func (s *Store) Users() *UsersRepository                 { return &UsersRepository{s: s} }
func (s *Store) Photos() *PhotosRepository               { return &PhotosRepository{s: s} }
func (s *Store) Messages() *MessagesRepository           { return &MessagesRepository{s: s} }
func (s *Store) RefreshTokens() *RefreshTokensRepository { return &RefreshTokensRepository{s: s} }
