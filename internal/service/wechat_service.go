package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"wechat_survey_backend/internal/util"
	"wechat_survey_backend/pkg/logger"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

const (
	WeChatAuthorizeURL = "https://open.weixin.qq.com/connect/oauth2/authorize"
	WeChatAPIBase      = "https://api.weixin.qq.com"

	wechatStateTTL = 10 * time.Minute
)

var wechatJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type stateStore interface {
	SaveState(ctx context.Context, state, next string, ttl time.Duration) error
	TakeState(ctx context.Context, state string) (string, bool, error)
}

type sessionWriter interface {
	Set(ctx context.Context, sessionKey string, values map[string]string) error
}

// WeChatService 公众号网页授权，获取用户 openid 和昵称
type WeChatService struct {
	mu        sync.RWMutex
	appID     string
	appSecret string

	Client       *http.Client
	States       stateStore
	Sessions     sessionWriter
	BaseURL      string
	AuthorizeURL string
	APIBase      string
}

func NewWeChatService(appID, appSecret string, timeout time.Duration, states stateStore, sessions sessionWriter, baseURL string) *WeChatService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WeChatService{
		appID:        appID,
		appSecret:    appSecret,
		Client:       &http.Client{Timeout: timeout},
		States:       states,
		Sessions:     sessions,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		AuthorizeURL: WeChatAuthorizeURL,
		APIBase:      WeChatAPIBase,
	}
}

// UpdateCredentials 配置热更新时调用
func (s *WeChatService) UpdateCredentials(appID, appSecret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appID = appID
	s.appSecret = appSecret
}

func (s *WeChatService) credentials() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appID, s.appSecret
}

// SafeNext 只接受站内相对路径
func SafeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

// AuthURL 生成授权跳转地址，state 与 next 的对应关系存入 Redis
func (s *WeChatService) AuthURL(ctx context.Context, next string) (string, error) {
	appID, _ := s.credentials()
	if appID == "" {
		return "", util.ErrWeChatNotConfigured
	}
	state := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.States.SaveState(ctx, state, SafeNext(next), wechatStateTTL); err != nil {
		return "", err
	}
	redirectURI := s.BaseURL + "/wechat/callback"
	return fmt.Sprintf("%s?appid=%s&redirect_uri=%s&response_type=code&scope=snsapi_userinfo&state=%s#wechat_redirect",
		s.AuthorizeURL, url.QueryEscape(appID), url.QueryEscape(redirectURI), state), nil
}

type wechatError struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type wechatToken struct {
	wechatError
	AccessToken string `json:"access_token"`
	OpenID      string `json:"openid"`
	UnionID     string `json:"unionid"`
}

// WeChatUser 授权获取的用户信息
type WeChatUser struct {
	wechatError
	OpenID     string `json:"openid"`
	Nickname   string `json:"nickname"`
	HeadImgURL string `json:"headimgurl"`
	UnionID    string `json:"unionid"`
}

// Callback 处理授权回调，返回跳转地址。微信接口失败只记录日志，仍然跳转
func (s *WeChatService) Callback(ctx context.Context, sessionKey, code, state string) (string, error) {
	next, ok, err := s.States.TakeState(ctx, state)
	if err != nil {
		return "/", err
	}
	if !ok {
		return "/", util.ErrWeChatState
	}
	if code == "" {
		return next, nil
	}

	user, err := s.fetchUser(ctx, code)
	if err != nil {
		logger.Log.Warn("微信授权获取用户信息失败", zap.Error(err))
		return next, nil
	}
	if sessionKey != "" {
		err = s.Sessions.Set(ctx, sessionKey, map[string]string{
			util.SessionWechatOpenID: user.OpenID,
			util.SessionWechatName:   user.Nickname,
			util.SessionWechatAvatar: user.HeadImgURL,
			util.SessionWechatUnion:  user.UnionID,
		})
		if err != nil {
			logger.Log.Warn("保存微信用户信息失败", zap.Error(err))
		}
	}
	return next, nil
}

func (s *WeChatService) fetchUser(ctx context.Context, code string) (*WeChatUser, error) {
	appID, secret := s.credentials()
	var token wechatToken
	err := s.getJSON(ctx, "/sns/oauth2/access_token", url.Values{
		"appid":      {appID},
		"secret":     {secret},
		"code":       {code},
		"grant_type": {"authorization_code"},
	}, &token)
	if err != nil {
		return nil, err
	}
	if token.ErrCode != 0 || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: access_token errcode=%d %s", util.ErrWeChatUpstream, token.ErrCode, token.ErrMsg)
	}

	var user WeChatUser
	err = s.getJSON(ctx, "/sns/userinfo", url.Values{
		"access_token": {token.AccessToken},
		"openid":       {token.OpenID},
		"lang":         {"zh_CN"},
	}, &user)
	if err != nil {
		return nil, err
	}
	if user.ErrCode != 0 {
		return nil, fmt.Errorf("%w: userinfo errcode=%d %s", util.ErrWeChatUpstream, user.ErrCode, user.ErrMsg)
	}
	if user.OpenID == "" {
		user.OpenID = token.OpenID
	}
	if user.UnionID == "" {
		user.UnionID = token.UnionID
	}
	return &user, nil
}

func (s *WeChatService) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.APIBase+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrWeChatUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", util.ErrWeChatUpstream, path, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrWeChatUpstream, err)
	}
	if err := wechatJSON.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", util.ErrWeChatUpstream, err)
	}
	return nil
}
