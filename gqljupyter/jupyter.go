package main

// This file implements a Jupyter kernel for asteval.

import (
	"context"
	"encoding/hex"
	"math/rand"
	"os"
	"runtime/debug"
	"strings"
	"unicode"

	"github.com/grailbio/asteval/asteval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/yunabe/lgo/jupyter/gojupyterscaffold"
)

// jupyterHandler implements gojupyterscaffold.RequestHandlers.
type jupyterHandler struct {
	interp    *asteval.Interpreter
	execCount int
}

// HandleKernelInfo implements gojupyterscaffold.RequestHandlers.
func (*jupyterHandler) HandleKernelInfo() gojupyterscaffold.KernelInfo {
	return gojupyterscaffold.KernelInfo{
		ProtocolVersion:       "5.2",
		Implementation:        "asteval",
		ImplementationVersion: "0.0.1",
		LanguageInfo: gojupyterscaffold.KernelLanguageInfo{
			Name: "python",
		},
		Banner: "asteval",
	}
}

// sendJupyterResult sends a result of expression evaluation to the Jupyter
// client. contentType is the mime type, e.g. "text/plain" or "text/markdown".
func sendJupyterResult(contentType, content string, cb func(data *gojupyterscaffold.DisplayData, update bool)) {
	// Generate a random display ID string. We never redisplay a result now.
	var buf [16]byte
	rand.Read(buf[:])
	var enc [32]byte
	hex.Encode(enc[:], buf[:])
	data := &gojupyterscaffold.DisplayData{
		Data:      map[string]interface{}{contentType: content},
		Transient: map[string]interface{}{"display_id": string(enc[:])},
	}
	cb(data, false)
}

// eval evaluates the given script and returns its repr, or a "help" style
// description when describe is true.
func (h *jupyterHandler) eval(ctx context.Context, code string, describe bool) (out string, err error) {
	defer func() {
		if e := recover(); e != nil {
			log.Printf("recovered from error: %v: %v", e, string(debug.Stack()))
			err = errors.E(e, "eval `"+code+"`")
		}
	}()
	log.Printf("eval: %s", code)
	node, perr := h.interp.Parse("(input)", code)
	if perr != nil {
		return "", perr
	}
	val, rerr := h.interp.Run(ctx, node, true)
	if rerr != nil {
		return "", rerr
	}
	if describe {
		return asteval.Str(val), nil
	}
	return asteval.Repr(val), nil
}

// HandleExecuteRequest implements gojupyterscaffold.RequestHandlers.
//
// Arg "stream" can be invoked to send stdout and/or stderr messages to the
// caller. Arg "display" is called to send the results of evaluation to the
// caller.
func (h *jupyterHandler) HandleExecuteRequest(
	ctx context.Context,
	r *gojupyterscaffold.ExecuteRequest,
	stream func(string, string),
	display func(data *gojupyterscaffold.DisplayData, update bool)) *gojupyterscaffold.ExecuteResult {
	h.execCount++

	result := &gojupyterscaffold.ExecuteResult{
		Status:         "ok",
		ExecutionCount: h.execCount,
	}

	describe := false
	mimeType := "text/plain"
	code := r.Code
	if strings.HasPrefix(code, "?") { // help requested.
		code = code[1:]
		describe = true
		mimeType = "text/markdown"
	}
	out, err := h.eval(ctx, code, describe)
	if err != nil {
		stream("stderr", "eval: `"+code+"`: "+err.Error())
		result.Status = "error"
		return result
	}
	sendJupyterResult(mimeType, out, display)
	return result
}

// HandleComplete implements gojupyterscaffold.RequestHandlers.
func (h *jupyterHandler) HandleComplete(req *gojupyterscaffold.CompleteRequest) *gojupyterscaffold.CompleteReply {
	log.Error.Printf("complete: %+v (not implemented)", req)
	return nil
}

// getIdentifierAroundCursor extracts an identifier around code[cursorPos].
// Returns "" if none is found.
func getIdentifierAroundCursor(code string, cursorPos int) string {
	isTokChar := func(ch rune) bool {
		return unicode.IsDigit(ch) || unicode.IsLetter(ch) || ch == '_'
	}
	runes := []rune(code)
	limit := cursorPos
	for limit < len(runes) {
		if isTokChar(runes[limit]) {
			limit++
		} else {
			break
		}
	}
	start := cursorPos
	for start >= 1 && start-1 < len(runes) {
		if isTokChar(runes[start-1]) {
			start--
		} else {
			break
		}
	}
	if start >= limit {
		return ""
	}
	return string(runes[start:limit])
}

// HandleInspect implements gojupyterscaffold.RequestHandlers.
//
// This function is called on Shift-TAB to show a tooltip.
func (h *jupyterHandler) HandleInspect(req *gojupyterscaffold.InspectRequest) *gojupyterscaffold.InspectReply {
	tok := getIdentifierAroundCursor(req.Code, req.CursorPos)
	if tok == "" {
		return nil
	}
	result := &gojupyterscaffold.InspectReply{}
	out, err := h.eval(context.Background(), tok, true)
	if err != nil {
		result.Status = "error"
		return result
	}
	result.Status = "ok"
	result.Found = true
	result.Data = map[string]interface{}{"text/plain": out}
	return result
}

// HandleIsComplete implements gojupyterscaffold.RequestHandlers.
func (*jupyterHandler) HandleIsComplete(req *gojupyterscaffold.IsCompleteRequest) *gojupyterscaffold.IsCompleteReply {
	log.Error.Printf("complete: %+v (not implemented)", req)
	return &gojupyterscaffold.IsCompleteReply{
		Status: "complete",
	}
}

// HandleGoFmt implements gojupyterscaffold.RequestHandlers.
//
// This is an lgo-specific extension; asteval scripts are not Go source, so
// there's no formatter to hook up here.
func (*jupyterHandler) HandleGoFmt(req *gojupyterscaffold.GoFmtRequest) (*gojupyterscaffold.GoFmtReply, error) {
	return nil, errors.New("asteval format: not supported")
}

// jupyterKernel starts a Jupyter kernel server. connectionPath must hold a
// JSON file describing the connection back to the notebook server, as
// defined in https://jupyter-client.readthedocs.io/en/stable/kernels.html.
func jupyterKernel(ctx context.Context, connectionPath string, interp *asteval.Interpreter) {
	data, err := os.ReadFile(connectionPath)
	if err != nil {
		log.Panicf("jupyterKernel: read %s: %v", connectionPath, err)
	}
	log.Printf("jupyterKernel: session started with %+v", string(data))
	server, err := gojupyterscaffold.NewServer(ctx, connectionPath, &jupyterHandler{interp: interp})
	if err != nil {
		log.Panicf("create jupyter server: %v", err)
	}
	server.Loop()
	log.Printf("jupyterKernel: finished")
}
