package remote

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// CookieStore persists the API session cookies between console invocations.
type CookieStore struct {
	path string
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

func (s *CookieStore) Path() string { return s.path }

// Load restores the stored cookies into the client's jar. A missing file is not an error.
func (s *CookieStore) Load(c *Client) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "reading session file")
	}
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return errors.Wrap(err, "decoding session file")
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: "/"})
	}
	c.Jar().SetCookies(c.BaseURL(), cookies)
	return nil
}

// Save writes the jar's cookies for the API host, readable by the owner only.
func (s *CookieStore) Save(c *Client) error {
	cookies := c.Jar().Cookies(c.BaseURL())
	if len(cookies) == 0 {
		return s.Clear()
	}
	stored := make([]storedCookie, 0, len(cookies))
	for _, ck := range cookies {
		stored = append(stored, storedCookie{Name: ck.Name, Value: ck.Value})
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session file")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return errors.Wrap(err, "creating session directory")
	}
	return errors.Wrap(os.WriteFile(s.path, data, 0600), "writing session file")
}

// Clear deletes the session file.
func (s *CookieStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session file")
	}
	return nil
}
