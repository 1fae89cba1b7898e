package catalog

// Slot constructors keep the builtin table readable.

func targetSlot(id string) SlotDef {
	return SlotDef{ID: id, Kind: SlotTargetRef, Label: id}
}

func textSlot(id string) SlotDef {
	return SlotDef{ID: id, Kind: SlotFreeText, Label: id}
}

func optionalText(id string) SlotDef {
	return SlotDef{ID: id, Kind: SlotFreeText, Label: id, Optional: true}
}

func choiceSlot(id string, options ...string) SlotDef {
	return SlotDef{ID: id, Kind: SlotFixedChoice, Label: id, Options: options}
}

func intSlot(id string) SlotDef {
	return SlotDef{ID: id, Kind: SlotInteger, Label: id}
}

// RecordActionID is the ID of the builtin handoff action.
const RecordActionID = "record"

// builtinActions is the default palette, in display order within each
// category. Text slots are quoted in both templates so that filling the
// visible blanks produces the same text as composing from values.
var builtinActions = []ActionDef{
	// Navigation
	{
		ID:           "open",
		Label:        "OPEN",
		Keywords:     []string{"NAVIGATE", "GOTO", "URL", "VISIT"},
		Template:     `OPEN "{url}"`,
		SlotTemplate: `OPEN "‹url›"`,
		Slots:        []SlotDef{textSlot("url")},
		Category:     CategoryNavigation,
		Description:  "Navigate the browser to a URL or path",
	},
	{
		ID:           "refresh",
		Label:        "REFRESH",
		Keywords:     []string{"RELOAD"},
		Template:     "REFRESH",
		SlotTemplate: "REFRESH",
		Category:     CategoryNavigation,
		Description:  "Reload the current page",
	},
	{
		ID:           "goBack",
		Label:        "GO BACK",
		Keywords:     []string{"BACK", "HISTORY"},
		Template:     "GO BACK",
		SlotTemplate: "GO BACK",
		Category:     CategoryNavigation,
		Description:  "Go back one entry in browser history",
	},
	{
		ID:           "goForward",
		Label:        "GO FORWARD",
		Keywords:     []string{"FORWARD", "HISTORY"},
		Template:     "GO FORWARD",
		SlotTemplate: "GO FORWARD",
		Category:     CategoryNavigation,
		Description:  "Go forward one entry in browser history",
	},
	{
		ID:           "switchTab",
		Label:        "SWITCH TO TAB",
		Keywords:     []string{"TAB", "WINDOW"},
		Template:     "SWITCH TO TAB {index}",
		SlotTemplate: "SWITCH TO TAB ‹index›",
		Slots:        []SlotDef{intSlot("index")},
		Category:     CategoryNavigation,
		Description:  "Focus a browser tab by its index",
	},

	// Interaction
	{
		ID:           "click",
		Label:        "CLICK",
		Keywords:     []string{"TAP", "PRESS BUTTON"},
		Template:     "CLICK {target}",
		SlotTemplate: "CLICK ‹target›",
		Slots:        []SlotDef{targetSlot("target")},
		Category:     CategoryInteraction,
		Description:  "Click an element",
	},
	{
		ID:           "doubleClick",
		Label:        "DOUBLE CLICK",
		Keywords:     []string{"DBLCLICK"},
		Template:     "DOUBLE CLICK {target}",
		SlotTemplate: "DOUBLE CLICK ‹target›",
		Slots:        []SlotDef{targetSlot("target")},
		Category:     CategoryInteraction,
		Description:  "Double-click an element",
	},
	{
		ID:           "rightClick",
		Label:        "RIGHT CLICK",
		Keywords:     []string{"CONTEXT MENU"},
		Template:     "RIGHT CLICK {target}",
		SlotTemplate: "RIGHT CLICK ‹target›",
		Slots:        []SlotDef{targetSlot("target")},
		Category:     CategoryInteraction,
		Description:  "Open the context menu on an element",
	},
	{
		ID:           "hover",
		Label:        "HOVER",
		Keywords:     []string{"MOUSE OVER"},
		Template:     "HOVER {target}",
		SlotTemplate: "HOVER ‹target›",
		Slots:        []SlotDef{targetSlot("target")},
		Category:     CategoryInteraction,
		Description:  "Move the mouse over an element",
	},
	{
		ID:           "press",
		Label:        "PRESS",
		Keywords:     []string{"KEY", "KEYBOARD"},
		Template:     "PRESS {key}",
		SlotTemplate: "PRESS ‹key›",
		Slots:        []SlotDef{{ID: "key", Kind: SlotKeyName, Label: "key"}},
		Category:     CategoryInteraction,
		Description:  "Press a keyboard key",
	},
	{
		ID:           "scroll",
		Label:        "SCROLL",
		Keywords:     []string{"PAGE DOWN"},
		Template:     "SCROLL {direction}",
		SlotTemplate: "SCROLL ‹direction›",
		Slots:        []SlotDef{choiceSlot("direction", "UP", "DOWN", "LEFT", "RIGHT")},
		Category:     CategoryInteraction,
		Description:  "Scroll the page in a direction",
	},
	{
		ID:           "scrollTo",
		Label:        "SCROLL TO",
		Keywords:     []string{"INTO VIEW"},
		Template:     "SCROLL TO {target}",
		SlotTemplate: "SCROLL TO ‹target›",
		Slots:        []SlotDef{targetSlot("target")},
		Category:     CategoryInteraction,
		Description:  "Scroll an element into view",
	},
	{
		ID:           "drag",
		Label:        "DRAG",
		Keywords:     []string{"DROP", "MOVE"},
		Template:     "DRAG {source} TO {destination}",
		SlotTemplate: "DRAG ‹source› TO ‹destination›",
		Slots:        []SlotDef{targetSlot("source"), targetSlot("destination")},
		Category:     CategoryInteraction,
		Description:  "Drag one element onto another",
	},

	// Input
	{
		ID:           "fill",
		Label:        "FILL",
		Keywords:     []string{"TYPE", "ENTER", "INPUT"},
		Template:     `FILL {target} WITH "{value}"`,
		SlotTemplate: `FILL ‹target› WITH "‹value›"`,
		Slots:        []SlotDef{targetSlot("target"), textSlot("value")},
		Category:     CategoryInput,
		Description:  "Type text into an input field",
	},
	{
		ID:           "clear",
		Label:        "CLEAR",
		Keywords:     []string{"EMPTY", "RESET"},
		Template:     "CLEAR {target}",
		SlotTemplate: "CLEAR ‹target›",
		Slots:        []SlotDef{targetSlot("target")},
		Category:     CategoryInput,
		Description:  "Clear the contents of an input field",
	},
	{
		ID:           "check",
		Label:        "CHECK",
		Keywords:     []string{"TICK", "CHECKBOX"},
		Template:     "CHECK {target}",
		SlotTemplate: "CHECK ‹target›",
		Slots:        []SlotDef{targetSlot("target")},
		Category:     CategoryInput,
		Description:  "Tick a checkbox or radio button",
	},
	{
		ID:           "uncheck",
		Label:        "UNCHECK",
		Keywords:     []string{"UNTICK", "CHECKBOX"},
		Template:     "UNCHECK {target}",
		SlotTemplate: "UNCHECK ‹target›",
		Slots:        []SlotDef{targetSlot("target")},
		Category:     CategoryInput,
		Description:  "Untick a checkbox",
	},
	{
		ID:           "select",
		Label:        "SELECT",
		Keywords:     []string{"DROPDOWN", "OPTION", "CHOOSE"},
		Template:     `SELECT "{option}" FROM {target}`,
		SlotTemplate: `SELECT "‹option›" FROM ‹target›`,
		Slots:        []SlotDef{textSlot("option"), targetSlot("target")},
		Category:     CategoryInput,
		Description:  "Pick an option from a dropdown",
	},
	{
		ID:           "upload",
		Label:        "UPLOAD",
		Keywords:     []string{"FILE", "ATTACH"},
		Template:     `UPLOAD "{file}" TO {target}`,
		SlotTemplate: `UPLOAD "‹file›" TO ‹target›`,
		Slots:        []SlotDef{textSlot("file"), targetSlot("target")},
		Category:     CategoryInput,
		Description:  "Attach a file to a file input",
	},

	// Assertion
	{
		ID:           "verify",
		Label:        "VERIFY",
		Keywords:     []string{"ASSERT", "EXPECT", "VISIBLE", "HIDDEN"},
		Template:     "VERIFY {target} IS {state}",
		SlotTemplate: "VERIFY ‹target› IS ‹state›",
		Slots: []SlotDef{
			targetSlot("target"),
			choiceSlot("state", "VISIBLE", "HIDDEN", "ENABLED", "DISABLED", "CHECKED"),
		},
		Category:    CategoryAssertion,
		Description: "Assert the state of an element",
	},
	{
		ID:           "verifyText",
		Label:        "VERIFY TEXT",
		Keywords:     []string{"ASSERT", "CONTAINS"},
		Template:     `VERIFY {target} CONTAINS "{text}"`,
		SlotTemplate: `VERIFY ‹target› CONTAINS "‹text›"`,
		Slots:        []SlotDef{targetSlot("target"), textSlot("text")},
		Category:     CategoryAssertion,
		Description:  "Assert that an element contains text",
	},
	{
		ID:           "verifyUrl",
		Label:        "VERIFY URL",
		Keywords:     []string{"ASSERT", "LOCATION"},
		Template:     `VERIFY URL CONTAINS "{text}"`,
		SlotTemplate: `VERIFY URL CONTAINS "‹text›"`,
		Slots:        []SlotDef{textSlot("text")},
		Category:     CategoryAssertion,
		Description:  "Assert that the current URL contains text",
	},
	{
		ID:           "verifyTitle",
		Label:        "VERIFY TITLE",
		Keywords:     []string{"ASSERT", "HEADING"},
		Template:     `VERIFY TITLE IS "{title}"`,
		SlotTemplate: `VERIFY TITLE IS "‹title›"`,
		Slots:        []SlotDef{textSlot("title")},
		Category:     CategoryAssertion,
		Description:  "Assert the page title",
	},

	// Wait
	{
		ID:           "wait",
		Label:        "WAIT",
		Keywords:     []string{"SLEEP", "PAUSE", "DELAY"},
		Template:     "WAIT {seconds} SECONDS",
		SlotTemplate: "WAIT ‹seconds› SECONDS",
		Slots:        []SlotDef{intSlot("seconds")},
		Category:     CategoryWait,
		Description:  "Pause for a number of seconds",
	},
	{
		ID:           "waitFor",
		Label:        "WAIT FOR",
		Keywords:     []string{"UNTIL", "APPEAR"},
		Template:     "WAIT FOR {target}",
		SlotTemplate: "WAIT FOR ‹target›",
		Slots:        []SlotDef{targetSlot("target")},
		Category:     CategoryWait,
		Description:  "Wait until an element is visible",
	},

	// Structure
	{
		ID:           "use",
		Label:        "USE",
		Keywords:     []string{"IMPORT", "PAGE"},
		Template:     "USE {page}",
		SlotTemplate: "USE ‹page›",
		Slots:        []SlotDef{textSlot("page")},
		Category:     CategoryStructure,
		Description:  "Bring a page object into scope",
	},
	{
		ID:           "perform",
		Label:        "PERFORM",
		Keywords:     []string{"RUN", "CALL", "REUSE"},
		Template:     "PERFORM {action}",
		SlotTemplate: "PERFORM ‹action›",
		Slots:        []SlotDef{{ID: "action", Kind: SlotActionRef, Label: "action"}},
		Category:     CategoryStructure,
		Description:  "Run a reusable page action",
	},

	// Hooks
	{
		ID:          "beforeAll",
		Label:       "BEFORE ALL",
		Keywords:    []string{"SETUP", "HOOK", "ONCE"},
		Template:    "BEFORE ALL",
		Category:    CategoryHooks,
		Description: "Run once before all scenarios in the feature",
		Hook:        HookBeforeAll,
	},
	{
		ID:          "beforeEach",
		Label:       "BEFORE EACH",
		Keywords:    []string{"SETUP", "HOOK"},
		Template:    "BEFORE EACH",
		Category:    CategoryHooks,
		Description: "Run before every scenario in the feature",
		Hook:        HookBeforeEach,
	},
	{
		ID:          "afterEach",
		Label:       "AFTER EACH",
		Keywords:    []string{"TEARDOWN", "HOOK"},
		Template:    "AFTER EACH",
		Category:    CategoryHooks,
		Description: "Run after every scenario in the feature",
		Hook:        HookAfterEach,
	},
	{
		ID:          "afterAll",
		Label:       "AFTER ALL",
		Keywords:    []string{"TEARDOWN", "HOOK", "ONCE"},
		Template:    "AFTER ALL",
		Category:    CategoryHooks,
		Description: "Run once after all scenarios in the feature",
		Hook:        HookAfterAll,
	},

	// Utility
	{
		ID:           "log",
		Label:        "LOG",
		Keywords:     []string{"PRINT", "ECHO", "MESSAGE"},
		Template:     `LOG "{message}"`,
		SlotTemplate: `LOG "‹message›"`,
		Slots:        []SlotDef{textSlot("message")},
		Category:     CategoryUtility,
		Description:  "Write a message to the run log",
	},
	{
		ID:           "screenshot",
		Label:        "TAKE SCREENSHOT",
		Keywords:     []string{"CAPTURE", "IMAGE", "SNAPSHOT"},
		Template:     `TAKE SCREENSHOT "{name}"`,
		SlotTemplate: `TAKE SCREENSHOT "‹name›"`,
		Slots:        []SlotDef{optionalText("name")},
		Category:     CategoryUtility,
		Description:  "Capture a screenshot, optionally named",
	},
	{
		ID:          RecordActionID,
		Label:       "RECORD",
		Keywords:    []string{"CAPTURE", "BROWSER", "RECORDER"},
		Category:    CategoryUtility,
		Description: "Record steps in the browser instead of writing them",
		Handoff:     true,
	},
}
