// Package api - Client fuer den clipserve HTTP-Server.
// Dieses Modul enthaelt die Client-Struktur und Basis-Methoden.
// API-Methoden sind in client_api.go, Wire-Typen in types_clip.go.
//
// Die Methoden von [Client] entsprechen den REST-Endpunkten unter /api.
// Das clipserve-Kommandozeilenwerkzeug nutzt dieses Paket fuer die
// Remote-Befehle analyze und search.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"runtime"

	"github.com/PeterGuy326/react-vision/envconfig"
	"github.com/PeterGuy326/react-vision/version"
)

// Client encapsulates client state for interacting with the clipserve
// service. Use [ClientFromEnvironment] to create new Clients.
type Client struct {
	base *url.URL
	http *http.Client
}

func checkError(resp *http.Response, body []byte) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	apiError := StatusError{StatusCode: resp.StatusCode, Status: resp.Status}

	err := json.Unmarshal(body, &apiError)
	if err != nil {
		// Use the full body as the message if we fail to decode a response.
		apiError.ErrorMessage = string(body)
	}

	return apiError
}

// ClientFromEnvironment creates a new [Client] using configuration from the
// environment variable CLIP_HOST, which points to the network host and
// port on which clipserve is listening. The format of this variable is:
//
//	<scheme>://<host>:<port>
//
// If the variable is not specified, 127.0.0.1:8000 is used.
func ClientFromEnvironment() (*Client, error) {
	return &Client{
		base: envconfig.Host(),
		http: http.DefaultClient,
	}, nil
}

func NewClient(base *url.URL, http *http.Client) *Client {
	return &Client{
		base: base,
		http: http,
	}
}

// formBody ist ein fertig kodierter Multipart-Body
type formBody struct {
	contentType string
	body        *bytes.Buffer
}

// form baut Multipart-Formulare fuer Uploads
type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.w.WriteField(name, value)
}

func (f *form) file(field string, img ImageFile) {
	if f.err != nil {
		return
	}
	name := img.Name
	if name == "" {
		name = "image"
	}
	part, err := f.w.CreateFormFile(field, name)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(img.Data)
}

func (f *form) finish() (*formBody, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := f.w.Close(); err != nil {
		return nil, err
	}
	return &formBody{contentType: f.w.FormDataContentType(), body: &f.buf}, nil
}

func (c *Client) do(ctx context.Context, method, path string, reqData, respData any) error {
	var reqBody io.Reader
	contentType := "application/json"

	switch reqData := reqData.(type) {
	case *formBody:
		reqBody = reqData.body
		contentType = reqData.contentType
	case io.Reader:
		// reqData is already an io.Reader
		reqBody = reqData
	case nil:
		// noop
	default:
		data, err := json.Marshal(reqData)
		if err != nil {
			return err
		}

		reqBody = bytes.NewReader(data)
	}

	requestURL := c.base.JoinPath(path)

	request, err := http.NewRequestWithContext(ctx, method, requestURL.String(), reqBody)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", fmt.Sprintf("clipserve/%s (%s %s) Go/%s", version.Version, runtime.GOARCH, runtime.GOOS, runtime.Version()))

	respObj, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer respObj.Body.Close()

	respBody, err := io.ReadAll(respObj.Body)
	if err != nil {
		return err
	}

	if err := checkError(respObj, respBody); err != nil {
		return err
	}

	if len(respBody) > 0 && respData != nil {
		if err := json.Unmarshal(respBody, respData); err != nil {
			return err
		}
	}
	return nil
}
