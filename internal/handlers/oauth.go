package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/Ali-Uen/todo-service/internal/models"
	"github.com/Ali-Uen/todo-service/internal/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

const (
	stateCookie    = "oauth_state"
	stateCookieAge = 300
	userInfoURL    = "https://openidconnect.googleapis.com/v1/userinfo"
)

// OAuthHandler drives the Google OAuth code flow and hands the resulting
// identity to the auth service.
type OAuthHandler struct {
	authService service.AuthService
	oauth       *oauth2.Config
	frontendURL string
	userInfoURL string
}

// NewOAuthHandler creates a new OAuthHandler instance.
func NewOAuthHandler(authService service.AuthService, oauth *oauth2.Config, frontendURL string) *OAuthHandler {
	return &OAuthHandler{
		authService: authService,
		oauth:       oauth,
		frontendURL: frontendURL,
		userInfoURL: userInfoURL,
	}
}

// googleUserInfo is the subset of the OpenID userinfo payload we consume.
type googleUserInfo struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// GoogleLogin godoc
// @Summary Start Google sign-in
// @Description Redirect to the Google consent screen with a state nonce
// @Tags auth
// @Success 307
// @Router /auth/google [get]
func (h *OAuthHandler) GoogleLogin(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		logAndRespondError(c, http.StatusInternalServerError, err, "OAUTH_FAILED", "failed to start sign-in")
		return
	}

	// httpOnly nonce cookie, verified on callback
	c.SetCookie(stateCookie, state, stateCookieAge, "/", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

// GoogleCallback godoc
// @Summary Google sign-in callback
// @Description Exchange the authorization code, reconcile the identity and redirect to the frontend with a token pair
// @Tags auth
// @Success 307
// @Router /auth/google/callback [get]
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	cookieState, err := c.Cookie(stateCookie)
	if err != nil || cookieState == "" || c.Query("state") != cookieState {
		h.redirectWithError(c, "oauth_state_mismatch")
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", c.Request.TLS != nil, true)

	code := c.Query("code")
	if code == "" {
		h.redirectWithError(c, "oauth_processing_failed")
		return
	}

	ctx := c.Request.Context()
	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		log.Printf("oauth code exchange failed: %v", err)
		h.redirectWithError(c, "oauth_processing_failed")
		return
	}

	info, err := h.fetchUserInfo(c, token)
	if err != nil {
		log.Printf("oauth userinfo fetch failed: %v", err)
		h.redirectWithError(c, "oauth_processing_failed")
		return
	}

	response, err := h.authService.LoginExternal(ctx, info.Email, info.Name, models.AuthProviderGoogle, info.Subject)
	if err != nil {
		log.Printf("oauth login failed for provider subject %s: %v", info.Subject, err)
		h.redirectWithError(c, "oauth_processing_failed")
		return
	}

	redirect := fmt.Sprintf("%s/auth/callback?accessToken=%s&refreshToken=%s&user=%s",
		h.frontendURL,
		url.QueryEscape(response.AccessToken),
		url.QueryEscape(response.RefreshToken),
		url.QueryEscape(response.User.Username),
	)
	c.Redirect(http.StatusTemporaryRedirect, redirect)
}

func (h *OAuthHandler) fetchUserInfo(c *gin.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.oauth.Client(c.Request.Context(), token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.Subject == "" || info.Email == "" {
		return nil, fmt.Errorf("userinfo payload missing subject or email")
	}
	return &info, nil
}

func (h *OAuthHandler) redirectWithError(c *gin.Context, code string) {
	c.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("%s/login?error=%s", h.frontendURL, url.QueryEscape(code)))
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
