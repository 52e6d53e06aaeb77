package api

import (
	"net/http"

	"github.com/swipswaps/kde-memory-guardian-sub002/audit"
	"github.com/swipswaps/kde-memory-guardian-sub002/pkg/api"
)

var (
	_ api.Response = (*healthResponse)(nil)
	_ api.Response = (*statusResponse)(nil)
)

type healthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Instance string `json:"instance"`
}

func (r healthResponse) Code() int {
	return http.StatusOK
}

func (r healthResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r healthResponse) Empty() bool {
	return false
}

type statusResponse struct {
	audit.CycleRecord
}

func (r statusResponse) Code() int {
	return http.StatusOK
}

func (r statusResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r statusResponse) Empty() bool {
	return false
}
