package asyncscript

// wrapperScript runs the user's script with a trailing completion callback.
// Arguments: user script source, user arguments, page id, timeout in ms.
// The callback parks its argument on the document until the poll script
// collects it; the timer raises a flag if the callback never fires.
const wrapperScript = `
var source = arguments[0];
var args = arguments[1] || [];
var pageId = arguments[2];
var timeoutMs = arguments[3];
var doc = document;

doc.__wirebridge_page_id = pageId;
doc.__wirebridge_timed_out = 0;
delete doc.__wirebridge_result;

var timer = setTimeout(function() {
  doc.__wirebridge_timed_out = 1;
}, timeoutMs);

var callback = function(value) {
  clearTimeout(timer);
  doc.__wirebridge_result = {value: value};
  doc.__wirebridge_timed_out = 0;
};

new Function(source).apply(null, args.concat([callback]));
`

// pollScript reports the state of a running async script.
// Arguments: pending id, page id.
// Returns [pendingId, -1] if the document was replaced, the stored result
// (consuming it) once the callback fired, or [pendingId, 0|1] otherwise.
const pollScript = `
var pendingId = arguments[0];
var pageId = arguments[1];
var doc = document;

if (doc.__wirebridge_page_id !== pageId) {
  return [pendingId, -1];
}
if ('__wirebridge_result' in doc) {
  var result = doc.__wirebridge_result.value;
  delete doc.__wirebridge_result;
  return result;
}
return [pendingId, doc.__wirebridge_timed_out ? 1 : 0];
`
