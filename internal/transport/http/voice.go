package httptransport

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"sleepvoice-server-go/internal/app/services"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/platform/logging"
)

// Result headers set by the raw audio endpoint.
const (
	HeaderHandler  = "X-Sleepvoice-Handler"
	HeaderCommand  = "X-Sleepvoice-Command"
	HeaderSuccess  = "X-Sleepvoice-Success"
	HeaderCode     = "X-Sleepvoice-Code"
	HeaderText     = "X-Sleepvoice-Text"
	HeaderDelivery = "X-Sleepvoice-Delivery"
	HeaderCacheHit = "X-Sleepvoice-Cache-Hit"
	HeaderFallback = "X-Sleepvoice-Fallback"
)

var resultHeaders = []string{
	HeaderHandler, HeaderCommand, HeaderSuccess, HeaderCode,
	HeaderText, HeaderDelivery, HeaderCacheHit, HeaderFallback,
}

// maxRequestBytes bounds a voice request body.
const maxRequestBytes = 64 << 10

// Voicer is the slice of the voice service the HTTP API needs.
type Voicer interface {
	Handle(ctx context.Context, req speech.VoiceRequest, t speech.Transcript, opts services.OutputOptions) (services.Response, error)
	Catalog() services.Catalog
}

// VoiceAPI serves voice requests over HTTP.
type VoiceAPI struct {
	svc    Voicer
	logger *logging.Logger
}

func NewVoiceAPI(svc Voicer, logger *logging.Logger) *VoiceAPI {
	return &VoiceAPI{svc: svc, logger: logger}
}

// Register mounts the voice routes on a group guarded by DeviceMiddleware.
func (a *VoiceAPI) Register(secured *gin.RouterGroup) {
	v1 := secured.Group("/v1")
	v1.POST("/voice", a.handleJSON)
	v1.POST("/voice/audio", a.handleAudio)
	v1.GET("/voice/options", a.handleOptions)
}

// handleJSON answers with the result and base64 audio in one JSON body.
//
// @Summary      Handle a voice request
// @Description  Dispatches an annotated transcript and returns the result with base64 audio.
// @Tags         voice
// @Accept       json
// @Produce      json
// @Param        request  body      services.Speech  true  "annotated transcript and output options"
// @Success      200      {object}  APIResponse{data=services.ResultView}
// @Failure      400      {object}  APIResponse
// @Failure      401      {object}  APIResponse
// @Failure      413      {object}  APIResponse
// @Failure      429      {object}  APIResponse
// @Security     DeviceToken
// @Router       /v1/voice [post]
func (a *VoiceAPI) handleJSON(c *gin.Context) {
	resp, ok := a.process(c)
	if !ok {
		return
	}
	RespondSuccess(c, http.StatusOK, resp.View(true), "")
}

// handleAudio answers with the audio bytes and carries the result in headers.
// Silent results are 204.
//
// @Summary      Handle a voice request, raw audio
// @Description  Same as /v1/voice but the body is the audio; the result travels in X-Sleepvoice-* headers.
// @Tags         voice
// @Accept       json
// @Produce      application/octet-stream
// @Param        request  body  services.Speech  true  "annotated transcript and output options"
// @Success      200  {file}    binary
// @Success      204  "silent result"
// @Failure      400  {object}  APIResponse
// @Failure      401  {object}  APIResponse
// @Failure      429  {object}  APIResponse
// @Security     DeviceToken
// @Router       /v1/voice/audio [post]
func (a *VoiceAPI) handleAudio(c *gin.Context) {
	resp, ok := a.process(c)
	if !ok {
		return
	}
	view := resp.View(false)
	c.Header(HeaderHandler, view.Handler)
	c.Header(HeaderCommand, view.Command)
	c.Header(HeaderSuccess, strconv.FormatBool(view.Success))
	c.Header(HeaderCode, view.Code)
	c.Header(HeaderText, view.Text)
	c.Header(HeaderDelivery, view.Delivery)
	c.Header(HeaderCacheHit, strconv.FormatBool(view.CacheHit))
	c.Header(HeaderFallback, strconv.FormatBool(view.Fallback))

	if len(resp.Output.Audio) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, resp.Output.Format.ContentType(), resp.Output.Audio)
}

// handleOptions lists the accepted output options.
//
// @Summary      List output options
// @Tags         voice
// @Produce      json
// @Success      200  {object}  APIResponse{data=services.Catalog}
// @Failure      401  {object}  APIResponse
// @Security     DeviceToken
// @Router       /v1/voice/options [get]
func (a *VoiceAPI) handleOptions(c *gin.Context) {
	RespondSuccess(c, http.StatusOK, a.svc.Catalog(), "")
}

func (a *VoiceAPI) process(c *gin.Context) (services.Response, bool) {
	id, ok := IdentityFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", gin.H{})
		return services.Response{}, false
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes+1))
	if err != nil {
		RespondErr(c, errors.Wrap(errors.KindTransport, "http.voice", "read body", err))
		return services.Response{}, false
	}
	if len(body) > maxRequestBytes {
		RespondError(c, http.StatusRequestEntityTooLarge, "request too large", gin.H{})
		return services.Response{}, false
	}

	var in services.Speech
	if err := sonic.Unmarshal(body, &in); err != nil {
		RespondErr(c, errors.Wrap(errors.KindTransport, "http.voice", "invalid json", err))
		return services.Response{}, false
	}
	transcript, err := in.Transcript.Transcript()
	if err != nil {
		RespondErr(c, err)
		return services.Response{}, false
	}

	req := speech.VoiceRequest{
		AccountID:  id.AccountID,
		DeviceID:   id.DeviceID,
		IP:         c.ClientIP(),
		Transcript: transcript.Raw(),
	}
	resp, err := a.svc.Handle(c.Request.Context(), req, transcript, in.Options())
	if err != nil {
		a.logger.WarnTag("HTTP", "voice request from %s failed: %v", id.DeviceID, err)
		RespondErr(c, err)
		return services.Response{}, false
	}
	return resp, true
}
