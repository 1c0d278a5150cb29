package donations

import (
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

// Controller groups the donation handlers around a gateway client so tests can
// point the client at a fake gateway.
type Controller struct {
	Gateway *utils.SSLCommerzClient
}

func NewController(gateway *utils.SSLCommerzClient) *Controller {
	return &Controller{Gateway: gateway}
}
