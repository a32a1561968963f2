package wire

import "fmt"

// CommandName identifies one wire operation.
type CommandName int

const (
	CmdNewSession CommandName = iota
	CmdQuit
	CmdGetStatus
	CmdGetCurrentWindowHandle
	CmdGetWindowHandles
	CmdGet
	CmdGetCurrentURL
	CmdGoBack
	CmdGoForward
	CmdRefresh
	CmdGetTitle
	CmdGetPageSource
	CmdExecuteScript
	CmdExecuteAsyncScript
	CmdSetScriptTimeout
	CmdImplicitlyWait
	CmdScreenshot
	CmdFindElement
	CmdFindElements
	CmdFindChildElement
	CmdFindChildElements
	CmdGetActiveElement
	CmdClickElement
	CmdSubmitElement
	CmdClearElement
	CmdSendKeysToElement
	CmdGetElementText
	CmdGetElementTagName
	CmdIsElementSelected
	CmdIsElementEnabled
	CmdIsElementDisplayed
	CmdGetElementAttribute
	CmdGetElementLocation
	CmdGetElementSize
	CmdGetElementValueOfCSSProperty
	CmdElementEquals
	CmdGetAllCookies
	CmdAddCookie
	CmdDeleteAllCookies
	CmdDeleteCookie
	CmdSwitchToFrame
	CmdSwitchToWindow
	CmdClose
	CmdAcceptAlert
	CmdDismissAlert
	CmdGetAlertText
	CmdSetAlertValue

	// Client-local pseudo-commands.
	CmdSleep
	CmdWait
	CmdFunction

	numCommands
)

var commandNames = [numCommands]string{
	CmdNewSession:                   "newSession",
	CmdQuit:                         "quit",
	CmdGetStatus:                    "getStatus",
	CmdGetCurrentWindowHandle:       "getCurrentWindowHandle",
	CmdGetWindowHandles:             "getWindowHandles",
	CmdGet:                          "get",
	CmdGetCurrentURL:                "getCurrentUrl",
	CmdGoBack:                       "goBack",
	CmdGoForward:                    "goForward",
	CmdRefresh:                      "refresh",
	CmdGetTitle:                     "getTitle",
	CmdGetPageSource:                "getPageSource",
	CmdExecuteScript:                "executeScript",
	CmdExecuteAsyncScript:           "executeAsyncScript",
	CmdSetScriptTimeout:             "setScriptTimeout",
	CmdImplicitlyWait:               "implicitlyWait",
	CmdScreenshot:                   "screenshot",
	CmdFindElement:                  "findElement",
	CmdFindElements:                 "findElements",
	CmdFindChildElement:             "findChildElement",
	CmdFindChildElements:            "findChildElements",
	CmdGetActiveElement:             "getActiveElement",
	CmdClickElement:                 "clickElement",
	CmdSubmitElement:                "submitElement",
	CmdClearElement:                 "clearElement",
	CmdSendKeysToElement:            "sendKeysToElement",
	CmdGetElementText:               "getElementText",
	CmdGetElementTagName:            "getElementTagName",
	CmdIsElementSelected:            "isElementSelected",
	CmdIsElementEnabled:             "isElementEnabled",
	CmdIsElementDisplayed:           "isElementDisplayed",
	CmdGetElementAttribute:          "getElementAttribute",
	CmdGetElementLocation:           "getElementLocation",
	CmdGetElementSize:               "getElementSize",
	CmdGetElementValueOfCSSProperty: "getElementValueOfCssProperty",
	CmdElementEquals:                "elementEquals",
	CmdGetAllCookies:                "getAllCookies",
	CmdAddCookie:                    "addCookie",
	CmdDeleteAllCookies:             "deleteAllCookies",
	CmdDeleteCookie:                 "deleteCookie",
	CmdSwitchToFrame:                "switchToFrame",
	CmdSwitchToWindow:               "switchToWindow",
	CmdClose:                        "close",
	CmdAcceptAlert:                  "acceptAlert",
	CmdDismissAlert:                 "dismissAlert",
	CmdGetAlertText:                 "getAlertText",
	CmdSetAlertValue:                "setAlertValue",
	CmdSleep:                        "sleep",
	CmdWait:                         "wait",
	CmdFunction:                     "function",
}

var commandsByName = func() map[string]CommandName {
	m := make(map[string]CommandName, numCommands)
	for i, name := range commandNames {
		m[name] = CommandName(i)
	}
	return m
}()

func (c CommandName) String() string {
	if c < 0 || c >= numCommands {
		return fmt.Sprintf("CommandName(%d)", int(c))
	}
	return commandNames[c]
}

// IsLocal reports whether the command is evaluated on the client.
func (c CommandName) IsLocal() bool {
	return c == CmdSleep || c == CmdWait || c == CmdFunction
}

// Valid reports whether c is a member of the enumeration.
func (c CommandName) Valid() bool {
	return c >= 0 && c < numCommands
}

// ParseCommandName maps a wire name back to its CommandName.
func ParseCommandName(name string) (CommandName, error) {
	c, ok := commandsByName[name]
	if !ok {
		return 0, NewArgumentError("name", "unknown command %q", name)
	}
	return c, nil
}

// AllCommands returns every command in declaration order.
func AllCommands() []CommandName {
	out := make([]CommandName, numCommands)
	for i := range out {
		out[i] = CommandName(i)
	}
	return out
}
