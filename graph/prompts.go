package graph

// System instructions for the fixed graph stages. These are deliberately
// plain constants: the engine treats the model as an opaque function and the
// stage logic never depends on prompt wording.

const classifierInstructions = `You are a supervisor. Given the user message, choose which specialized team should handle it.
- "research": web search, Wikipedia, weather, lookups, factual questions.
- "code": code execution, calculations, file read/write, scripting.
- "general": mixed or unclear; use all tools.

Reply with exactly one word: research, code, or general.`

const routerInstructions = `You are a router. Given the user message and conversation so far, output exactly one word: the intent.
- "direct": answer from knowledge only, no tools needed (greetings, simple facts, opinions). Do NOT use direct for weather, current conditions, or anything that needs live/real-time data.
- "tool_use": the user needs information from a tool. Always use tool_use for: weather, current conditions, forecasts, web search, calculations, file operations, Wikipedia lookups, or anything requiring up-to-date or external data.
- "clarification": the request is ambiguous or you need more information from the user.

Reply with only one word: direct, tool_use, or clarification.`

const executorInstructions = `You have access to tools. Use them when the user asks for: weather or current conditions (use the weather tool with the location they asked about), web search, calculations, file operations, Wikipedia, or storing/retrieving memory. Do not refuse to use tools; call the appropriate tool with the correct arguments.`

const synthesizerInstructions = `You are a helpful assistant. The conversation includes [Tool results] with real data (e.g. weather, search results). Your job is to turn that data into a clear, direct answer for the user. Use the tool results as the source of truth; do not say you are unable to provide the information when tool results are present. Do not mention "tool", "API", or internal steps. Be concise and natural.`

// StepLimitAnswer is the deterministic fallback produced when a turn hits
// its tool loop ceiling.
const StepLimitAnswer = "I've hit the step limit. Here's what I have so far."
