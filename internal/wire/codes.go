package wire

// ErrorCode is the numeric status carried by every wire response.
type ErrorCode int

// Success is the only status that does not denote a failure.
const Success ErrorCode = 0

// Category is a named failure class of the remote end. Categories are
// compared by identity, so alias names share one value.
type Category struct {
	Name   string
	Code   ErrorCode
	parent *Category
}

func (c *Category) Error() string {
	return c.Name
}

// Is reports whether target is c or one of the families c belongs to.
func (c *Category) Is(target error) bool {
	t, ok := target.(*Category)
	if !ok {
		return false
	}
	for p := c; p != nil; p = p.parent {
		if p == t {
			return true
		}
	}
	return false
}

func newCategory(name string, code ErrorCode, parent *Category) *Category {
	return &Category{Name: name, Code: code, parent: parent}
}

// ErrWebDriver is the generic category every other category belongs to. It is
// also what unmapped codes resolve to.
var ErrWebDriver = &Category{Name: "WebDriverError", Code: -1}

// Numbered categories. Their order defines the code mapping.
var (
	ErrIndexOutOfBounds      = newCategory("IndexOutOfBoundsError", 1, ErrWebDriver)
	ErrNoCollection          = newCategory("NoCollectionError", 2, ErrWebDriver)
	ErrNoString              = newCategory("NoStringError", 3, ErrWebDriver)
	ErrNoStringLength        = newCategory("NoStringLengthError", 4, ErrWebDriver)
	ErrNoStringWrapper       = newCategory("NoStringWrapperError", 5, ErrWebDriver)
	ErrNoSuchDriver          = newCategory("NoSuchDriverError", 6, ErrWebDriver)
	ErrNoSuchElement         = newCategory("NoSuchElementError", 7, ErrWebDriver)
	ErrNoSuchFrame           = newCategory("NoSuchFrameError", 8, ErrWebDriver)
	ErrUnknownCommand        = newCategory("UnknownCommandError", 9, ErrWebDriver)
	ErrStaleElementReference = newCategory("StaleElementReferenceError", 10, ErrWebDriver)
	ErrElementNotVisible     = newCategory("ElementNotVisibleError", 11, ErrWebDriver)
	ErrElementNotEnabled     = newCategory("ElementNotEnabledError", 12, ErrWebDriver)
	ErrUnknown               = newCategory("UnknownError", 13, ErrWebDriver)
	ErrExpected              = newCategory("ExpectedError", 14, ErrWebDriver)
	ErrElementNotSelectable  = newCategory("ElementNotSelectableError", 15, ErrWebDriver)
	ErrNoSuchDocument        = newCategory("NoSuchDocumentError", 16, ErrWebDriver)
	ErrJavascript            = newCategory("JavascriptError", 17, ErrWebDriver)
	ErrNoScriptResult        = newCategory("NoScriptResultError", 18, ErrWebDriver)
	ErrUnknownScriptResult   = newCategory("UnknownScriptResultError", 19, ErrWebDriver)
	ErrNoSuchCollection      = newCategory("NoSuchCollectionError", 20, ErrWebDriver)
	ErrTimeOut               = newCategory("TimeOutError", 21, ErrWebDriver)
	ErrNullPointer           = newCategory("NullPointerError", 22, ErrWebDriver)
	ErrNoSuchWindow          = newCategory("NoSuchWindowError", 23, ErrWebDriver)
	ErrInvalidCookieDomain   = newCategory("InvalidCookieDomainError", 24, ErrWebDriver)
	ErrUnableToSetCookie     = newCategory("UnableToSetCookieError", 25, ErrWebDriver)
)

// Categories outside the numbered list. They never come off the wire by code.
var (
	ErrUnsupportedOperation = newCategory("UnsupportedOperationError", -1, ErrWebDriver)
	ErrNoAlertPresent       = newCategory("NoAlertPresentError", -1, ErrWebDriver)
	ErrInvalidElementState  = newCategory("InvalidElementStateError", -1, ErrElementNotEnabled)
	ErrInvalidSelector      = newCategory("InvalidSelectorError", -1, ErrWebDriver)
)

// Older names kept for existing callers.
var (
	ErrObsoleteElement      = ErrStaleElementReference
	ErrElementNotDisplayed  = ErrElementNotVisible
	ErrUnhandled            = ErrUnknown
	ErrUnexpectedJavascript = ErrJavascript
	ErrNoAlertOpen          = ErrNoAlertPresent
)

var codeTable = [...]*Category{
	ErrIndexOutOfBounds,
	ErrNoCollection,
	ErrNoString,
	ErrNoStringLength,
	ErrNoStringWrapper,
	ErrNoSuchDriver,
	ErrNoSuchElement,
	ErrNoSuchFrame,
	ErrUnknownCommand,
	ErrStaleElementReference,
	ErrElementNotVisible,
	ErrElementNotEnabled,
	ErrUnknown,
	ErrExpected,
	ErrElementNotSelectable,
	ErrNoSuchDocument,
	ErrJavascript,
	ErrNoScriptResult,
	ErrUnknownScriptResult,
	ErrNoSuchCollection,
	ErrTimeOut,
	ErrNullPointer,
	ErrNoSuchWindow,
	ErrInvalidCookieDomain,
	ErrUnableToSetCookie,
}

// Unhandled is the code used for failures raised on the client side.
const Unhandled ErrorCode = 13

// ForCode returns the category for code. Success yields nil, anything outside
// the table yields ErrWebDriver.
func ForCode(code ErrorCode) *Category {
	if code == Success {
		return nil
	}
	if code < 1 || int(code) > len(codeTable) {
		return ErrWebDriver
	}
	return codeTable[code-1]
}

// Category returns the category of a failing status, nil for Success.
func (c ErrorCode) Category() *Category {
	return ForCode(c)
}

func (c ErrorCode) String() string {
	if c == Success {
		return "Success"
	}
	return ForCode(c).Name
}
