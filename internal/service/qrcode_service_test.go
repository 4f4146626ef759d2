package service

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"strings"
	"testing"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"
	"wechat_survey_backend/pkg/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

type memQRCodes struct {
	codes map[string]*model.QRCode
	url   string
}

func newMemQRCodes() *memQRCodes {
	return &memQRCodes{codes: map[string]*model.QRCode{}}
}

func (m *memQRCodes) Create(_ context.Context, q *model.QRCode) error {
	if _, ok := m.codes[q.ShortCode]; ok {
		return gorm.ErrDuplicatedKey
	}
	cp := *q
	m.codes[q.ShortCode] = &cp
	return nil
}

func (m *memQRCodes) FindByCode(_ context.Context, code string) (*model.QRCode, error) {
	q, ok := m.codes[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *memQRCodes) Exists(_ context.Context, code string) (bool, error) {
	_, ok := m.codes[code]
	return ok, nil
}

func (m *memQRCodes) List(context.Context, string, int, int) ([]model.QRCode, int64, error) {
	return nil, 0, nil
}

func (m *memQRCodes) IncrementScan(_ context.Context, code string) error {
	q, ok := m.codes[code]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	q.ScanCount++
	return nil
}

func (m *memQRCodes) UpdateImageURL(_ context.Context, code, url string) error {
	m.codes[code].ImageURL = url
	return nil
}

func (m *memQRCodes) Delete(_ context.Context, code string) error {
	if _, ok := m.codes[code]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.codes, code)
	return nil
}

type stubSurveyFinder struct {
	requireWechat bool
}

func (f stubSurveyFinder) FindByID(_ context.Context, id string) (*model.Survey, error) {
	if id != "11111111-1111-1111-1111-111111111111" {
		return nil, gorm.ErrRecordNotFound
	}
	s := &model.Survey{Title: "t", RequireWechat: f.requireWechat}
	s.ID = id
	return s, nil
}

type memUploader struct {
	files map[string][]byte
}

func (u *memUploader) Upload(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.files[name] = data
	return "/uploads/" + name, nil
}

const testSurveyID = "11111111-1111-1111-1111-111111111111"

func newTestQRService() (*QRCodeService, *memQRCodes, *memUploader) {
	store := newMemQRCodes()
	uploader := &memUploader{files: map[string][]byte{}}
	return NewQRCodeService(store, stubSurveyFinder{}, uploader, "https://survey.example.com/"), store, uploader
}

func TestCreateQRCodeDefaults(t *testing.T) {
	svc, store, _ := newTestQRService()
	q, err := svc.Create(context.Background(), QRCodeRequest{SurveyID: testSurveyID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if q.Name != DefaultQRCodeName || len(q.ShortCode) != 8 {
		t.Fatalf("qrcode = %+v", q)
	}
	if _, ok := store.codes[q.ShortCode]; !ok {
		t.Fatalf("qrcode not stored")
	}
	view := svc.View(q)
	if view.RedirectURL != "https://survey.example.com/qrcode/"+q.ShortCode+"/redirect/" {
		t.Fatalf("RedirectURL = %q", view.RedirectURL)
	}

	if _, err := svc.Create(context.Background(), QRCodeRequest{SurveyID: "missing"}); !errors.Is(err, util.ErrSurveyNotFound) {
		t.Fatalf("err = %v, want ErrSurveyNotFound", err)
	}
}

func TestScanIncrementsCount(t *testing.T) {
	svc, store, _ := newTestQRService()
	ctx := context.Background()
	_ = store.Create(ctx, &model.QRCode{ShortCode: "abc12345", SurveyID: testSurveyID, Name: "n"})
	before := testutil.ToFloat64(monitoring.QRScanCounter.WithLabelValues(testSurveyID))

	for i := 0; i < 3; i++ {
		if _, err := svc.Scan(ctx, "abc12345"); err != nil {
			t.Fatalf("Scan: %v", err)
		}
	}
	if store.codes["abc12345"].ScanCount != 3 {
		t.Fatalf("ScanCount = %d, want 3", store.codes["abc12345"].ScanCount)
	}
	// 指标按问卷计数，不随短码增多
	if got := testutil.ToFloat64(monitoring.QRScanCounter.WithLabelValues(testSurveyID)) - before; got != 3 {
		t.Fatalf("scan metric delta = %v, want 3", got)
	}
	if _, err := svc.Scan(ctx, "nope"); !errors.Is(err, util.ErrQRCodeNotFound) {
		t.Fatalf("err = %v, want ErrQRCodeNotFound", err)
	}
}

func TestRenderQRCodeSize(t *testing.T) {
	opts := DefaultImageOptions()
	opts.BoxSize = 4
	opts.Border = 2
	opts.FillColor = "#0000ff"
	data, err := RenderQRCode("https://survey.example.com/qrcode/abc12345/redirect/", opts)
	if err != nil {
		t.Fatalf("RenderQRCode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != b.Dy() || b.Dx()%opts.BoxSize != 0 {
		t.Fatalf("image %dx%d is not a whole number of modules", b.Dx(), b.Dy())
	}
	// 四角在边框内，应为背景色
	r, g, bl, _ := img.At(0, 0).RGBA()
	if r != 0xffff || g != 0xffff || bl != 0xffff {
		t.Fatalf("border pixel = %v, want white", img.At(0, 0))
	}
}

func TestRenderFallsBackToAutoVersion(t *testing.T) {
	opts := DefaultImageOptions()
	opts.Version = 1
	long := "https://survey.example.com/qrcode/" + strings.Repeat("x", 200) + "/redirect/"
	if _, err := RenderQRCode(long, opts); err != nil {
		t.Fatalf("RenderQRCode must fall back to auto version: %v", err)
	}
}

func TestParseImageOptions(t *testing.T) {
	params := map[string]string{"box_size": "12", "border": "5", "error_correction": "q", "fill_color": "0000ff"}
	opts, err := ParseImageOptions(func(k string) string { return params[k] })
	if err != nil {
		t.Fatalf("ParseImageOptions: %v", err)
	}
	if opts.BoxSize != 12 || opts.Border != 5 || opts.ErrorCorrection != "Q" || opts.FillColor != "0000ff" || opts.BackColor != "white" {
		t.Fatalf("opts = %+v", opts)
	}

	for _, bad := range []map[string]string{
		{"version": "41"},
		{"box_size": "0"},
		{"border": "21"},
		{"error_correction": "X"},
		{"back_color": "not-a-color"},
	} {
		if _, err := ParseImageOptions(func(k string) string { return bad[k] }); !errors.Is(err, util.ErrQRCodeOptions) {
			t.Fatalf("params %v: err = %v, want ErrQRCodeOptions", bad, err)
		}
	}
}

func TestArchiveStoresImageURL(t *testing.T) {
	svc, store, uploader := newTestQRService()
	ctx := context.Background()
	_ = store.Create(ctx, &model.QRCode{ShortCode: "zz", SurveyID: testSurveyID, Name: "n"})

	q, err := svc.Archive(ctx, "zz", DefaultImageOptions())
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if q.ImageURL != "/uploads/qrcodes/zz.png" || len(uploader.files["qrcodes/zz.png"]) == 0 {
		t.Fatalf("ImageURL = %q", q.ImageURL)
	}
}

func TestRedirectRequiresWechat(t *testing.T) {
	svc, store, _ := newTestQRService()
	svc.Surveys = stubSurveyFinder{requireWechat: true}
	ctx := context.Background()
	_ = store.Create(ctx, &model.QRCode{ShortCode: "wx000001", SurveyID: testSurveyID, Name: "n"})

	res, err := svc.Redirect(ctx, "wx000001", "Mozilla/5.0 Chrome/120")
	if err != nil {
		t.Fatalf("Redirect: %v", err)
	}
	if !res.WechatRequired || res.RedirectPath != "/survey/"+testSurveyID {
		t.Fatalf("result = %+v", res)
	}
	res, err = svc.Redirect(ctx, "wx000001", wechatUA)
	if err != nil || res.WechatRequired {
		t.Fatalf("wechat client: %+v, %v", res, err)
	}
	if store.codes["wx000001"].ScanCount != 2 {
		t.Fatalf("ScanCount = %d, rejected scans still count", store.codes["wx000001"].ScanCount)
	}
}
