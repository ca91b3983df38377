package fakeapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/givehub/console/core/association"
	"github.com/givehub/console/core/auth"
	"github.com/givehub/console/core/user"
)

func readBody(req *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading body")
	}
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, nil
}

func bindJSON(ctx echo.Context, v interface{}) error {
	if err := json.NewDecoder(ctx.Request().Body).Decode(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body").SetInternal(err)
	}
	return nil
}

func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// auth

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	AccountType string `json:"accountType"`
}

func (s *Server) login(ctx echo.Context) error {
	var req loginRequest
	if err := bindJSON(ctx, &req); err != nil {
		return err
	}

	var (
		kind string
		id   int
		ok   bool
	)
	switch req.AccountType {
	case "", kindUser:
		var usr user.User
		usr, ok = s.db.authenticateUser(req.Email, req.Password)
		kind, id = kindUser, usr.ID
	case kindAssociation:
		var assoc association.Association
		assoc, ok = s.db.authenticateAssociation(req.Email, req.Password)
		kind, id = kindAssociation, assoc.ID
	default:
		return fieldErrors{"accountType": "unknown account type"}
	}
	if !ok {
		return errAuthenticationFailed
	}

	ck, err := s.sessions.issue(kind, id)
	if err != nil {
		return err
	}
	ctx.SetCookie(ck)
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) logout(ctx echo.Context) error {
	if ck, err := ctx.Cookie(SessionCookie); err == nil {
		if claims, err := s.sessions.verify(ck.Value); err == nil {
			s.sessions.revoke(claims.ID)
		}
	}
	ctx.SetCookie(expiredCookie())
	return ctx.NoContent(http.StatusNoContent)
}

// users

type userPayload struct {
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	UserType     auth.Role `json:"userType"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
}

func (s *Server) userProfile(ctx echo.Context) error {
	claims, err := contextSession(ctx)
	if err != nil {
		return err
	}
	usr, err := s.db.getUser(claims.accountID())
	if err != nil {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (s *Server) createUser(ctx echo.Context) error {
	var p userPayload
	if err := bindJSON(ctx, &p); err != nil {
		return err
	}
	flds := fieldErrors{}
	if p.FirstName == "" {
		flds["firstName"] = "this field is required"
	}
	if p.LastName == "" {
		flds["lastName"] = "this field is required"
	}
	if !validEmail(p.Email) {
		flds["email"] = "enter a valid email address"
	}
	if p.PasswordHash == "" {
		flds["passwordHash"] = "this field is required"
	}
	if !p.UserType.Valid() {
		flds["userType"] = "this field is required"
	}
	if len(flds) > 0 {
		return flds
	}

	usr, err := s.db.createUser(user.User{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		UserType:  p.UserType,
		Phone:     p.Phone,
		Address:   p.Address,
	}, p.PasswordHash)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (s *Server) queryUsers(ctx echo.Context) error {
	var role auth.Role
	if rt := ctx.QueryParam("userType"); rt != "" {
		r, err := auth.ParseRole(rt)
		if err != nil {
			return ctx.JSON(http.StatusOK, []user.User{})
		}
		role = r
	}
	return ctx.JSON(http.StatusOK, s.db.filterUsers(ctx.QueryParam("search"), role))
}

func (s *Server) getUser(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	usr, err := s.db.getUser(id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (s *Server) updateUser(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := bindJSON(ctx, &fields); err != nil {
		return err
	}

	usr, err := s.db.updateUser(id, func(rec *userRecord) error {
		flds := fieldErrors{}
		for key, raw := range fields {
			var str string
			if key != "userType" {
				if err := json.Unmarshal(raw, &str); err != nil {
					flds[key] = "must be a string"
					continue
				}
			}
			switch key {
			case "firstName":
				rec.FirstName = str
			case "lastName":
				rec.LastName = str
			case "email":
				if !validEmail(str) {
					flds[key] = "enter a valid email address"
				}
				rec.Email = str
			case "phone":
				rec.Phone = str
			case "address":
				rec.Address = str
			case "passwordHash":
				hash, err := hashPassword(str)
				if err != nil {
					return err
				}
				rec.passwordHash = hash
			case "userType":
				if err := json.Unmarshal(raw, &rec.UserType); err != nil {
					flds[key] = "unknown role"
				}
			default:
				flds[key] = "unknown field"
			}
		}
		if len(flds) > 0 {
			return flds
		}
		return nil
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (s *Server) deleteUser(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := s.db.deleteUser(id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// associations

type associationPayload struct {
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	PasswordHash   string               `json:"passwordHash"`
	Phone          string               `json:"phone"`
	Address        string               `json:"address"`
	Category       association.Category `json:"category"`
	Description    string               `json:"description"`
	Logo           string               `json:"logo"`
	FoundationDate string               `json:"foundationDate"`
}

func (s *Server) publicAssociations(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.db.filterAssociations("", ""))
}

func (s *Server) associationProfile(ctx echo.Context) error {
	claims, err := contextSession(ctx)
	if err != nil {
		return err
	}
	assoc, err := s.db.getAssociation(claims.accountID())
	if err != nil {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, assoc)
}

func (s *Server) getAssociation(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	assoc, err := s.db.getAssociation(id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, assoc)
}

func (s *Server) queryAssociations(ctx echo.Context) error {
	var cat association.Category
	if c := ctx.QueryParam("category"); c != "" {
		parsed, err := association.ParseCategory(c)
		if err != nil {
			return ctx.JSON(http.StatusOK, []association.Association{})
		}
		cat = parsed
	}
	return ctx.JSON(http.StatusOK, s.db.filterAssociations(ctx.QueryParam("name"), cat))
}

func (s *Server) createAssociation(ctx echo.Context) error {
	var p associationPayload
	if err := bindJSON(ctx, &p); err != nil {
		return err
	}
	flds := fieldErrors{}
	if strings.TrimSpace(p.Name) == "" {
		flds["name"] = "this field is required"
	}
	if !validEmail(p.Email) {
		flds["email"] = "enter a valid email address"
	}
	if p.PasswordHash == "" {
		flds["passwordHash"] = "this field is required"
	}
	if !p.Category.Valid() {
		flds["category"] = "this field is required"
	}
	if len(flds) > 0 {
		return flds
	}

	assoc, err := s.db.createAssociation(association.Association{
		Name:           p.Name,
		Email:          p.Email,
		Phone:          p.Phone,
		Address:        p.Address,
		Category:       p.Category,
		Description:    p.Description,
		Logo:           p.Logo,
		FoundationDate: p.FoundationDate,
	}, p.PasswordHash)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, assoc)
}

func (s *Server) updateAssociation(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var fields map[string]string
	if err := bindJSON(ctx, &fields); err != nil {
		return err
	}

	assoc, err := s.db.updateAssociation(id, func(rec *associationRecord) error {
		flds := fieldErrors{}
		for key, val := range fields {
			switch key {
			case "name":
				rec.Name = val
			case "email":
				if !validEmail(val) {
					flds[key] = "enter a valid email address"
				}
				rec.Email = val
			case "phone":
				rec.Phone = val
			case "address":
				rec.Address = val
			case "category":
				cat, err := association.ParseCategory(val)
				if err != nil {
					flds[key] = "unknown category"
				}
				rec.Category = cat
			case "description":
				rec.Description = val
			case "logo":
				rec.Logo = val
			case "foundationDate":
				rec.FoundationDate = val
			case "passwordHash":
				hash, err := hashPassword(val)
				if err != nil {
					return err
				}
				rec.passwordHash = hash
			default:
				flds[key] = "unknown field"
			}
		}
		if len(flds) > 0 {
			return flds
		}
		return nil
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, assoc)
}

func (s *Server) deleteAssociation(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := s.db.deleteAssociation(id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
