package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/mtgvault/mtgvault/internal/errs"
	"github.com/mtgvault/mtgvault/internal/model"
)

// Cookie names carried between requests. Sessions live for a year, like the
// UI this API originally served.
const (
	cookieToken    = "user_token"
	cookieUserID   = "user_id"
	cookieUsername = "username"
	cookieMaxAge   = 365 * 24 * 60 * 60
)

type credentialsReq struct {
	Username string `json:"username"`
	Login    string `json:"login"` // login form sends "login" instead of "username"
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (r credentialsReq) name() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Login
}

func (s *Server) setIdentityCookies(c *gin.Context, id model.Identity) {
	c.SetCookie(cookieToken, id.Token, cookieMaxAge, "/", "", true, true)
	c.SetCookie(cookieUserID, id.UserID.String(), cookieMaxAge, "/", "", true, false)
	c.SetCookie(cookieUsername, id.Username, cookieMaxAge, "/", "", true, false)
}

func (s *Server) clearIdentityCookies(c *gin.Context) {
	for _, name := range []string{cookieToken, cookieUserID, cookieUsername} {
		c.SetCookie(name, "", -1, "/", "", true, false)
	}
}

// owner returns the authenticated owner identity from the username cookie.
func (s *Server) owner(c *gin.Context) (string, bool) {
	name, err := c.Cookie(cookieUsername)
	if err != nil || name == "" {
		fail(c, errs.ErrUnauthorized)
		return "", false
	}
	return name, true
}

func (s *Server) register(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation)
		return
	}
	id, err := s.auth.Register(c.Request.Context(), req.name(), req.Password, req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	s.setIdentityCookies(c, id)
	c.JSON(http.StatusOK, gin.H{"success": true, "username": id.Username, "userID": id.UserID.String()})
}

func (s *Server) login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation)
		return
	}
	id, err := s.auth.Login(c.Request.Context(), req.name(), req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	s.setIdentityCookies(c, id)
	c.JSON(http.StatusOK, gin.H{"success": true, "username": id.Username, "userID": id.UserID.String()})
}

func (s *Server) logout(c *gin.Context) {
	token, terr := c.Cookie(cookieToken)
	rawID, ierr := c.Cookie(cookieUserID)
	if terr != nil || ierr != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "no user is logged in"})
		return
	}
	userID, err := uuid.FromString(rawID)
	if err != nil {
		fail(c, errs.ErrValidation)
		return
	}
	ok, err := s.auth.Logout(c.Request.Context(), token, userID)
	if err != nil {
		fail(c, err)
		return
	}
	s.clearIdentityCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

func (s *Server) suggest(c *gin.Context) {
	out, err := s.catalog.Suggest(c.Request.Context(), c.Param("text"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) editions(c *gin.Context) {
	out, err := s.catalog.EditionsDropdown(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listCollections(c *gin.Context) {
	owner, ok := s.owner(c)
	if !ok {
		return
	}
	names, err := s.collections.ListCollections(c.Request.Context(), owner)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, namesToDropdown(names))
}

func (s *Server) listEntries(c *gin.Context) {
	owner, ok := s.owner(c)
	if !ok {
		return
	}
	entries, err := s.collections.ListEntries(c.Request.Context(), owner, c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) addCard(c *gin.Context) {
	owner, ok := s.owner(c)
	if !ok {
		return
	}
	units, err := strconv.ParseInt(c.Param("units"), 10, 64)
	if err != nil {
		fail(c, errs.ErrValidation)
		return
	}
	outcome, err := s.collections.AddCard(
		c.Request.Context(), owner, c.Param("collection"), c.Param("card"), c.Param("edition"), units,
	)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "partial": outcome.Partial(), "units": outcome.Units})
}

func (s *Server) addCollection(c *gin.Context) {
	owner, ok := s.owner(c)
	if !ok {
		return
	}
	outcome, err := s.collections.AddCollection(c.Request.Context(), owner, c.Param("collection"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "partial": outcome.Partial()})
}

func (s *Server) reconcile(c *gin.Context) {
	owner, ok := s.owner(c)
	if !ok {
		return
	}
	if err := s.collections.Reconcile(c.Request.Context(), owner); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) downloadCards(c *gin.Context) {
	ds, err := s.catalog.TriggerFetch(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bytes": ds.Size, "sha256": ds.SHA256})
}

func (s *Server) synchronizeCards(c *gin.Context) {
	res, err := s.catalog.TriggerSynchronize(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"generation": res.Generation,
		"cards":      res.Cards,
		"editions":   res.Editions,
		"skipped":    res.Skipped,
	})
}

func namesToDropdown(names []string) []model.DropdownItem {
	out := make([]model.DropdownItem, len(names))
	for i, n := range names {
		out[i] = model.DropdownItem{ID: i, Name: n}
	}
	return out
}
