package client

import (
	"net/http"
)

type Client struct {
	*http.Client
	RecaptchaSecretKey string
	RecaptchaMinScore  float64
	RecaptchaAction    string
	Logger             logger
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}
