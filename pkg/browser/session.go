// Package browser keeps a logged-in browser session used to read community
// moderator rosters.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"devscope/internal/models"
	"devscope/pkg/broadcast"
)

// State of the browser session.
type State string

const (
	StateClosed         State = "closed"
	StateAwaitingLogin  State = "awaiting_login"
	StateAuthenticating State = "authenticating"
	StateReady          State = "ready"
)

const (
	loginURL      = "https://twitter.com/login"
	homeURL       = "https://twitter.com/home"
	logoutURL     = "https://twitter.com/logout"
	moderatorsURL = "https://x.com/i/communities/%s/moderators"

	confirmLogoutSelector = `[data-testid="confirmationSheetConfirm"]`
	moreMenuSelector      = `[data-testid="AppTabBar_More_Menu"]`
	logoutLinkSelector    = `a[href="/logout"]`

	defaultPollInterval = 3 * time.Second
	defaultSwitchDelay  = 2 * time.Second
	defaultRosterWait   = 5 * time.Second
)

var (
	ErrNotInitialized  = errors.New("browser not initialized")
	ErrSessionInactive = errors.New("browser session not active, please login manually")
	ErrSessionExpired  = errors.New("session expired, please login again")

	loggedInSelectors = []string{
		`[data-testid="SideNav_NewTweet_Button"]`,
		`[aria-label="Home timeline"]`,
		`[data-testid="AppTabBar_Home_Link"]`,
		`[data-testid="primaryColumn"]`,
	}
)

type Config struct {
	DataDir string
	Launch  Launcher
}

// Status describes the session for the API.
type Status struct {
	Initialized bool   `json:"initialized"`
	LoggedIn    bool   `json:"loggedIn"`
	State       State  `json:"state"`
	Mode        string `json:"mode,omitempty"`
	URL         string `json:"url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Session owns one browser. A session without stored credentials starts
// visible on the login page and polls until the user has logged in, then
// relaunches headless on the same profile.
type Session struct {
	mu         sync.Mutex
	state      State
	page       Page
	headless   bool
	stopPoll   context.CancelFunc
	pollCtx    context.Context
	pollCancel context.CancelFunc

	// opMu serializes work on the page.
	opMu sync.Mutex

	dataDir string
	launch  Launcher
	pub     broadcast.Publisher

	pollInterval time.Duration
	switchDelay  time.Duration
	rosterWait   time.Duration
}

func NewSession(cfg Config, pub broadcast.Publisher) *Session {
	if cfg.DataDir == "" {
		cfg.DataDir = "./session/twitter-session"
	}
	if cfg.Launch == nil {
		cfg.Launch = LaunchChrome
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		state:        StateClosed,
		dataDir:      cfg.DataDir,
		launch:       cfg.Launch,
		pub:          pub,
		pollCtx:      ctx,
		pollCancel:   cancel,
		pollInterval: defaultPollInterval,
		switchDelay:  defaultSwitchDelay,
		rosterWait:   defaultRosterWait,
	}
}

// Init launches the browser once. A stored profile starts headless and
// ready; otherwise the login page is opened and login polling begins.
func (s *Session) Init(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	started := s.page != nil
	s.mu.Unlock()
	if started {
		return nil
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	if hasSessionFiles(s.dataDir) {
		log.WithField("data_dir", s.dataDir).Info("Stored browser session found, starting headless")
		page, err := s.launch(ctx, LaunchOptions{Headless: true, DataDir: s.dataDir})
		if err != nil {
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		s.setPage(page, true, StateReady)
		return nil
	}

	log.Info("No stored browser session, opening login page")
	return s.openLoginLocked(ctx)
}

// OpenLogin shows the login page in a visible browser and waits for the
// user to log in.
func (s *Session) OpenLogin(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.openLoginLocked(ctx)
}

func (s *Session) openLoginLocked(ctx context.Context) error {
	s.mu.Lock()
	page, headless := s.page, s.headless
	s.mu.Unlock()

	if page == nil || headless {
		if page != nil {
			page.Close()
		}
		var err error
		page, err = s.launch(ctx, LaunchOptions{Headless: false, DataDir: s.dataDir})
		if err != nil {
			s.setPage(nil, false, StateClosed)
			return fmt.Errorf("failed to launch browser: %w", err)
		}
	}
	s.setPage(page, false, StateAwaitingLogin)

	if err := page.Navigate(ctx, loginURL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	s.startPolling()
	return nil
}

func (s *Session) setPage(page Page, headless bool, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
	s.headless = headless
	s.state = state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Session) startPolling() {
	s.mu.Lock()
	if s.stopPoll != nil {
		s.stopPoll()
	}
	ctx, cancel := context.WithCancel(s.pollCtx)
	s.stopPoll = cancel
	s.mu.Unlock()

	go s.pollLogin(ctx)
}

func (s *Session) pollLogin(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.opMu.Lock()
		s.mu.Lock()
		page, state := s.page, s.state
		s.mu.Unlock()
		if page == nil || state != StateAwaitingLogin {
			s.opMu.Unlock()
			return
		}

		if _, ok := loggedIn(ctx, page, time.Second); ok {
			log.Info("Login detected, switching browser to headless")
			s.promote(ctx, page)
			s.opMu.Unlock()
			return
		}
		s.opMu.Unlock()
	}
}

// promote moves a logged-in visible session to a headless browser on the
// same profile. Callers hold opMu.
func (s *Session) promote(ctx context.Context, visible Page) {
	s.setState(StateAuthenticating)
	visible.Close()

	if err := sleep(ctx, s.switchDelay); err != nil {
		s.setPage(nil, false, StateClosed)
		return
	}

	page, err := s.launch(ctx, LaunchOptions{Headless: true, DataDir: s.dataDir})
	if err != nil {
		log.WithError(err).Error("Failed to relaunch headless browser")
		s.setPage(nil, false, StateClosed)
		s.publish("twitter_session_switch_error", map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	s.setPage(page, true, StateAuthenticating)

	if st := s.checkLocked(ctx); !st.LoggedIn {
		log.Warn("Headless session verification failed")
		s.publish("twitter_session_switch_failed", map[string]interface{}{
			"success": false,
			"message": "Failed to verify session in headless mode",
		})
		return
	}

	log.Info("Browser session ready")
	s.publish("twitter_session_switched_headless", map[string]interface{}{
		"success": true,
		"message": "Browser switched to headless mode - ready for invisible scraping",
		"mode":    "headless",
	})
}

// IsSessionActive reports whether rosters can be fetched right now.
func (s *Session) IsSessionActive(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page != nil && s.state == StateReady
}

func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page != nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CheckSession visits the home timeline and updates the session state from
// what it finds.
func (s *Session) CheckSession(ctx context.Context) Status {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.checkLocked(ctx)
}

func (s *Session) checkLocked(ctx context.Context) Status {
	s.mu.Lock()
	page, headless, state := s.page, s.headless, s.state
	s.mu.Unlock()

	if page == nil {
		return Status{State: state, Error: ErrNotInitialized.Error()}
	}

	st := Status{Initialized: true, Mode: mode(headless)}
	// A visible browser waiting for login is left on its page.
	if headless || state != StateAwaitingLogin {
		if err := page.Navigate(ctx, homeURL); err != nil {
			log.WithError(err).Debug("Home navigation failed, checking current page")
		}
	}
	url, ok := loggedIn(ctx, page, 2*time.Second)
	st.URL = url
	st.LoggedIn = ok

	switch {
	case ok && headless:
		s.setState(StateReady)
	case !ok && state == StateReady, !ok && state == StateAuthenticating:
		s.setState(StateAwaitingLogin)
	}
	st.State = s.State()
	return st
}

// FetchModeratorRoster loads the moderators page of a community and
// returns its rendered text and HTML.
func (s *Session) FetchModeratorRoster(ctx context.Context, communityID string) (models.RosterPage, error) {
	if !s.IsSessionActive(ctx) {
		return models.RosterPage{}, ErrSessionInactive
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	page := s.page
	s.mu.Unlock()
	if page == nil {
		return models.RosterPage{}, ErrNotInitialized
	}

	target := fmt.Sprintf(moderatorsURL, communityID)
	log.WithField("url", target).Debug("Fetching moderator roster")
	if err := page.Navigate(ctx, target); err != nil {
		return models.RosterPage{}, fmt.Errorf("failed to open moderators page: %w", err)
	}
	if err := sleep(ctx, s.rosterWait); err != nil {
		return models.RosterPage{}, err
	}

	current, err := page.URL(ctx)
	if err != nil {
		return models.RosterPage{}, fmt.Errorf("failed to read page url: %w", err)
	}
	if strings.Contains(current, "login") {
		s.setState(StateAwaitingLogin)
		return models.RosterPage{}, ErrSessionExpired
	}

	text, html, err := page.Content(ctx)
	if err != nil {
		return models.RosterPage{}, fmt.Errorf("failed to read moderators page: %w", err)
	}
	return models.RosterPage{Text: text, HTML: html}, nil
}

// Logout signs the browser out. The session is marked inactive whatever
// the outcome; the returned bool reports whether the logout was confirmed.
func (s *Session) Logout(ctx context.Context) (bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	page := s.page
	if s.stopPoll != nil {
		s.stopPoll()
		s.stopPoll = nil
	}
	s.mu.Unlock()
	if page == nil {
		return false, ErrNotInitialized
	}
	defer s.setState(StateAwaitingLogin)

	if err := page.Navigate(ctx, logoutURL); err == nil {
		if page.Exists(ctx, confirmLogoutSelector, 2*time.Second) {
			if err := page.Click(ctx, confirmLogoutSelector, 2*time.Second); err == nil {
				log.Info("Confirmed logout")
			}
		}
	} else {
		log.WithError(err).Warn("Direct logout failed, trying menu")
		if err := page.Navigate(ctx, homeURL); err == nil {
			if page.Click(ctx, moreMenuSelector, 5*time.Second) == nil {
				page.Click(ctx, logoutLinkSelector, 3*time.Second)
			}
		}
	}

	if err := sleep(ctx, s.switchDelay); err != nil {
		return false, err
	}

	current, err := page.URL(ctx)
	if err != nil {
		s.publish("twitter_logout_error", map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return false, err
	}

	if strings.Contains(current, "login") || strings.Contains(current, "logout") ||
		current == "https://twitter.com/" || current == "https://x.com/" {
		s.publish("twitter_logout_success", map[string]interface{}{
			"success": true,
			"message": "Successfully logged out from Twitter",
		})
		return true, nil
	}

	log.WithField("url", current).Warn("Logout may not have completed")
	s.publish("twitter_logout_partial", map[string]interface{}{
		"success": true,
		"message": "Logout attempted - session marked as inactive",
	})
	return false, nil
}

// Close stops polling and shuts the browser down.
func (s *Session) Close() {
	s.pollCancel()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	page := s.page
	s.page = nil
	s.state = StateClosed
	s.mu.Unlock()

	if page != nil {
		page.Close()
	}
}

func (s *Session) publish(typ string, data map[string]interface{}) {
	if s.pub == nil {
		return
	}
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	s.pub.Publish(broadcast.Event{Type: typ, Data: data})
}

// loggedIn reports whether the page shows a signed-in timeline, by URL
// first and then by known timeline elements.
func loggedIn(ctx context.Context, page Page, wait time.Duration) (string, bool) {
	current, err := page.URL(ctx)
	if err != nil {
		return "", false
	}
	if strings.Contains(current, "home") || strings.Contains(current, "timeline") ||
		(strings.Contains(current, "twitter.com") && !strings.Contains(current, "login")) {
		return current, true
	}
	for _, sel := range loggedInSelectors {
		if page.Exists(ctx, sel, wait) {
			return current, true
		}
	}
	return current, false
}

// hasSessionFiles reports whether a browser profile with cookies or local
// storage exists under dir.
func hasSessionFiles(dir string) bool {
	for _, d := range []string{dir, filepath.Join(dir, "Default")} {
		entries, err := os.ReadDir(d)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := strings.ToLower(e.Name())
			if strings.Contains(name, "cookies") || strings.Contains(name, "local storage") ||
				strings.Contains(name, "localstorage") || strings.Contains(name, "sessionstorage") {
				return true
			}
		}
	}
	return false
}

func mode(headless bool) string {
	if headless {
		return "headless"
	}
	return "visible"
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
