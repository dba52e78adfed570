package intel

// Prompt templates for the text-intelligence operations. Each one demands a
// strict output shape so responses can be parsed mechanically.

const summarizePromptTemplate = `Summarize each of these news article headlines in one concise sentence each.
Focus on what the article is about and what beat/topic it covers.
Write for a PR professional researching the reporter.

Headlines:
%s

Provide exactly %d summaries, numbered to match the headlines above.
Keep each summary to one sentence, under 100 characters if possible.`

const profilePromptTemplate = `You are analyzing a journalist's recent article history for a PR professional.

Reporter: %s%s

Recent articles:
%s

Based on this data, provide two things:

1. CURRENT OUTLET: Determine the reporter's current primary outlet. Account for syndication — if the same articles appear across multiple papers in the same network (e.g., McClatchy, Gannett), identify the reporter's home paper, not every syndication partner. Give just the outlet name.

2. BIO: Write a 2-3 sentence mini-bio describing what this reporter covers. Write it as prose suitable for a PR professional audience. Do not use bullet points or lists. Focus on their beat, coverage areas, and any notable patterns.

Respond in this exact JSON format:
{"current_outlet": "Outlet Name", "reporter_bio": "Two to three sentences about the reporter."}`

const classifyPromptTemplate = `You are classifying a journalist for a PR tool used by professional services firms (law, accounting, consulting, financial advisory).

Reporter: %s
Outlets: %s

Recent article summaries:
%s

Question: Is this reporter relevant to professional services firms? A relevant reporter covers topics like: legal industry, accounting/audit, tax policy, M&A/deals, management consulting, financial regulation, corporate governance, bankruptcy/restructuring, or business topics where professional services firms are key players.

Respond in this exact JSON format:
{"relevant": true, "rationale": "One sentence explaining why."}

If the reporter primarily covers sports, entertainment, lifestyle, weather, local crime, or other unrelated beats, mark them as not relevant.`

const analyzeCSVPromptTemplate = `You are mapping the columns of an uploaded media-contacts CSV to reporter fields.

Headers: %s

Sample rows:
%s

Map each reporter field to the header that holds it, or "" when no header fits.

Respond in this exact JSON format:
{"name": "header", "outlet": "header", "bio": "header", "twitter": "header", "linkedin": "header"}`
