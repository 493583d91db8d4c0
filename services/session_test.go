package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestSession_SignIn(t *testing.T) {
	is := is.New(t)
	fb := newFakeBackend(t)
	store := &MemoryTokenStore{}
	s := NewSession(fb.URL, nil, store)

	user, err := s.SignIn(context.Background(), "google-ok", 3600)
	is.NoErr(err)
	is.Equal(user.Email, "ada@example.com")
	is.True(s.IsAuthenticated())
	is.Equal(s.Token(), fb.validToken)

	persisted, err := store.Load(context.Background())
	is.NoErr(err)
	is.Equal(persisted, fb.validToken)
}

func TestSession_SignInRejected(t *testing.T) {
	is := is.New(t)
	fb := newFakeBackend(t)
	store := &MemoryTokenStore{}
	s := NewSession(fb.URL, nil, store)

	_, err := s.SignIn(context.Background(), "google-bad", 3600)
	is.True(errors.Is(err, ErrAuthExchangeFailed))
	rf, ok := IsRequestFailed(err)
	is.True(ok)
	is.Equal(rf.Status, http.StatusUnauthorized)
	is.Equal(rf.Detail, "Invalid Google token")
	is.True(!s.IsAuthenticated())
	is.True(!s.HasToken())
	_, err = store.Load(context.Background())
	is.True(errors.Is(err, ErrNoToken))
}

func TestSession_Restore(t *testing.T) {
	t.Run("nothing persisted", func(t *testing.T) {
		is := is.New(t)
		fb := newFakeBackend(t)
		s := NewSession(fb.URL, nil, &MemoryTokenStore{})
		is.NoErr(s.Restore(context.Background()))
		is.True(!s.IsAuthenticated())
		is.Equal(fb.count("GET /auth/me"), 0)
	})

	t.Run("expired token is discarded without a request", func(t *testing.T) {
		is := is.New(t)
		fb := newFakeBackend(t)
		store := &MemoryTokenStore{}
		is.NoErr(store.Save(context.Background(), signedToken(t, time.Now().Add(-time.Minute))))

		s := NewSession(fb.URL, nil, store)
		is.NoErr(s.Restore(context.Background()))
		is.True(!s.HasToken())
		is.Equal(fb.count("GET /auth/me"), 0)
		_, err := store.Load(context.Background())
		is.True(errors.Is(err, ErrNoToken))
	})

	t.Run("valid token loads the profile", func(t *testing.T) {
		is := is.New(t)
		fb := newFakeBackend(t)
		store := &MemoryTokenStore{}
		is.NoErr(store.Save(context.Background(), fb.validToken))

		s := NewSession(fb.URL, nil, store)
		is.NoErr(s.Restore(context.Background()))
		is.True(s.IsAuthenticated())
		is.Equal(s.User().TokensRemaining(), 90)
	})

	t.Run("profile failure signs out", func(t *testing.T) {
		is := is.New(t)
		fb := newFakeBackend(t)
		fb.setMeStatus(http.StatusInternalServerError)
		store := &MemoryTokenStore{}
		is.NoErr(store.Save(context.Background(), fb.validToken))

		s := NewSession(fb.URL, nil, store)
		err := s.Restore(context.Background())
		is.True(errors.Is(err, ErrSessionExpired))
		is.True(!s.IsAuthenticated())
		is.True(!s.HasToken())
		_, err = store.Load(context.Background())
		is.True(errors.Is(err, ErrNoToken))
	})
}

func TestSession_RestoreCancelledKeepsToken(t *testing.T) {
	is := is.New(t)
	fb := newFakeBackend(t)
	store := &MemoryTokenStore{}
	is.NoErr(store.Save(context.Background(), fb.validToken))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSession(fb.URL, nil, store)
	err := s.Restore(ctx)
	is.True(errors.Is(err, context.Canceled))
	is.True(!errors.Is(err, ErrSessionExpired))
	is.Equal(s.Token(), fb.validToken)
	persisted, err := store.Load(context.Background())
	is.NoErr(err)
	is.Equal(persisted, fb.validToken)

	// 之后正常刷新即可恢复资料
	is.NoErr(s.Refresh(context.Background()))
	is.True(s.IsAuthenticated())
}

func TestSession_HandleUnauthorizedIgnoresOldToken(t *testing.T) {
	is := is.New(t)
	fb := newFakeBackend(t)
	store := &MemoryTokenStore{}
	s := NewSession(fb.URL, nil, store)
	_, err := s.SignIn(context.Background(), "google-ok", 3600)
	is.NoErr(err)
	current := s.Token()

	s.HandleUnauthorized("an-earlier-token")
	s.HandleUnauthorized("")
	is.True(s.IsAuthenticated())
	is.Equal(s.Token(), current)
	_, err = store.Load(context.Background())
	is.NoErr(err)

	s.HandleUnauthorized(current)
	is.True(!s.HasToken())
	_, err = store.Load(context.Background())
	is.True(errors.Is(err, ErrNoToken))
}

func TestSession_SignOutAndRefresh(t *testing.T) {
	is := is.New(t)
	fb := newFakeBackend(t)
	store := &MemoryTokenStore{}
	s := NewSession(fb.URL, nil, store)

	is.True(errors.Is(s.Refresh(context.Background()), ErrSessionExpired))

	_, err := s.SignIn(context.Background(), "google-ok", 3600)
	is.NoErr(err)
	is.NoErr(s.Refresh(context.Background()))
	is.Equal(fb.count("GET /auth/me"), 1)

	s.SignOut(context.Background())
	is.True(!s.IsAuthenticated())
	is.True(s.User() == nil)
	_, err = store.Load(context.Background())
	is.True(errors.Is(err, ErrNoToken))
}

func TestSession_UserIsACopy(t *testing.T) {
	is := is.New(t)
	fb := newFakeBackend(t)
	s := NewSession(fb.URL, nil, &MemoryTokenStore{})
	_, err := s.SignIn(context.Background(), "google-ok", 3600)
	is.NoErr(err)

	u := s.User()
	u.Name = "changed"
	is.Equal(s.User().Name, "Ada")
}
