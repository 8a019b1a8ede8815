package api

import "github.com/gin-gonic/gin"

// Controller is the gin group a Module mounts on. The plain verbs require an
// authenticated scope; the PUBLIC_ variants also serve anonymous callers.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) GET(path string, h HandlerFunc) {
	c.Group.GET(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) POST(path string, h HandlerFunc) {
	c.Group.POST(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PATCH(path string, h HandlerFunc) {
	c.Group.PATCH(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) DELETE(path string, h HandlerFunc) {
	c.Group.DELETE(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PUBLIC_GET(path string, h HandlerFunc) {
	c.Group.GET(path, ResolveEndpoint(h))
}

func (c *Controller) PUBLIC_POST(path string, h HandlerFunc) {
	c.Group.POST(path, ResolveEndpoint(h))
}

func (c *Controller) PUBLIC_DELETE(path string, h HandlerFunc) {
	c.Group.DELETE(path, ResolveEndpoint(h))
}

// RAW_GET mounts a handler that writes its own response, such as a feed.
func (c *Controller) RAW_GET(path string, h ...gin.HandlerFunc) {
	c.Group.GET(path, h...)
}
