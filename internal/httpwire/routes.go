package httpwire

import (
	"net/http"

	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// Route is the HTTP method and path template of one command. Path segments
// starting with ':' are filled from the session id or command parameters.
type Route struct {
	Method string
	Path   string
}

var routes = map[wire.CommandName]Route{
	wire.CmdNewSession:                   {http.MethodPost, "/session"},
	wire.CmdQuit:                         {http.MethodDelete, "/session/:sessionId"},
	wire.CmdGetStatus:                    {http.MethodGet, "/status"},
	wire.CmdGetCurrentWindowHandle:       {http.MethodGet, "/session/:sessionId/window_handle"},
	wire.CmdGetWindowHandles:             {http.MethodGet, "/session/:sessionId/window_handles"},
	wire.CmdGet:                          {http.MethodPost, "/session/:sessionId/url"},
	wire.CmdGetCurrentURL:                {http.MethodGet, "/session/:sessionId/url"},
	wire.CmdGoBack:                       {http.MethodPost, "/session/:sessionId/back"},
	wire.CmdGoForward:                    {http.MethodPost, "/session/:sessionId/forward"},
	wire.CmdRefresh:                      {http.MethodPost, "/session/:sessionId/refresh"},
	wire.CmdGetTitle:                     {http.MethodGet, "/session/:sessionId/title"},
	wire.CmdGetPageSource:                {http.MethodGet, "/session/:sessionId/source"},
	wire.CmdExecuteScript:                {http.MethodPost, "/session/:sessionId/execute"},
	wire.CmdExecuteAsyncScript:           {http.MethodPost, "/session/:sessionId/execute_async"},
	wire.CmdSetScriptTimeout:             {http.MethodPost, "/session/:sessionId/timeouts/async_script"},
	wire.CmdImplicitlyWait:               {http.MethodPost, "/session/:sessionId/timeouts/implicit_wait"},
	wire.CmdScreenshot:                   {http.MethodGet, "/session/:sessionId/screenshot"},
	wire.CmdFindElement:                  {http.MethodPost, "/session/:sessionId/element"},
	wire.CmdFindElements:                 {http.MethodPost, "/session/:sessionId/elements"},
	wire.CmdFindChildElement:             {http.MethodPost, "/session/:sessionId/element/:id/element"},
	wire.CmdFindChildElements:            {http.MethodPost, "/session/:sessionId/element/:id/elements"},
	wire.CmdGetActiveElement:             {http.MethodPost, "/session/:sessionId/element/active"},
	wire.CmdClickElement:                 {http.MethodPost, "/session/:sessionId/element/:id/click"},
	wire.CmdSubmitElement:                {http.MethodPost, "/session/:sessionId/element/:id/submit"},
	wire.CmdClearElement:                 {http.MethodPost, "/session/:sessionId/element/:id/clear"},
	wire.CmdSendKeysToElement:            {http.MethodPost, "/session/:sessionId/element/:id/value"},
	wire.CmdGetElementText:               {http.MethodGet, "/session/:sessionId/element/:id/text"},
	wire.CmdGetElementTagName:            {http.MethodGet, "/session/:sessionId/element/:id/name"},
	wire.CmdIsElementSelected:            {http.MethodGet, "/session/:sessionId/element/:id/selected"},
	wire.CmdIsElementEnabled:             {http.MethodGet, "/session/:sessionId/element/:id/enabled"},
	wire.CmdIsElementDisplayed:           {http.MethodGet, "/session/:sessionId/element/:id/displayed"},
	wire.CmdGetElementAttribute:          {http.MethodGet, "/session/:sessionId/element/:id/attribute/:name"},
	wire.CmdGetElementLocation:           {http.MethodGet, "/session/:sessionId/element/:id/location"},
	wire.CmdGetElementSize:               {http.MethodGet, "/session/:sessionId/element/:id/size"},
	wire.CmdGetElementValueOfCSSProperty: {http.MethodGet, "/session/:sessionId/element/:id/css/:propertyName"},
	wire.CmdElementEquals:                {http.MethodGet, "/session/:sessionId/element/:id/equals/:other"},
	wire.CmdGetAllCookies:                {http.MethodGet, "/session/:sessionId/cookie"},
	wire.CmdAddCookie:                    {http.MethodPost, "/session/:sessionId/cookie"},
	wire.CmdDeleteAllCookies:             {http.MethodDelete, "/session/:sessionId/cookie"},
	wire.CmdDeleteCookie:                 {http.MethodDelete, "/session/:sessionId/cookie/:name"},
	wire.CmdSwitchToFrame:                {http.MethodPost, "/session/:sessionId/frame"},
	wire.CmdSwitchToWindow:               {http.MethodPost, "/session/:sessionId/window"},
	wire.CmdClose:                        {http.MethodDelete, "/session/:sessionId/window"},
	wire.CmdAcceptAlert:                  {http.MethodPost, "/session/:sessionId/accept_alert"},
	wire.CmdDismissAlert:                 {http.MethodPost, "/session/:sessionId/dismiss_alert"},
	wire.CmdGetAlertText:                 {http.MethodGet, "/session/:sessionId/alert_text"},
	wire.CmdSetAlertValue:                {http.MethodPost, "/session/:sessionId/alert_text"},
}

// RouteFor returns the route of name. Local pseudo-commands have none.
func RouteFor(name wire.CommandName) (Route, bool) {
	r, ok := routes[name]
	return r, ok
}
