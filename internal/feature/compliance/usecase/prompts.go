package usecase

const (
	// gapAnalysisPromptTemplate takes: regulation, requirements, company documentation, company description.
	gapAnalysisPromptTemplate = `
You are a compliance expert. Analyze the company's documentation against %s requirements.

REGULATION REQUIREMENTS:
%s

COMPANY DOCUMENTATION:
%s

COMPANY DESCRIPTION: %s

Provide a structured analysis with:
1. COMPLIANT: Areas where company meets requirements
2. GAPS: Missing or non-compliant areas
3. PARTIAL: Areas with partial implementation
4. RISK_LEVEL: High/Medium/Low for each gap

Format each finding as: SECTION|STATUS|DESCRIPTION|RISK_LEVEL

Provide specific, actionable findings based on the documentation provided.
`

	// reportPromptTemplate takes: company description, document chunk count, findings summary.
	reportPromptTemplate = `
Generate a professional compliance assessment report based on the following analysis:

COMPANY: %s
DOCUMENT CHUNKS ANALYZED: %s

ANALYSIS RESULTS:
%s

Structure the report as:
# EXECUTIVE SUMMARY
Brief overview of overall compliance posture and key findings

# COMPANY OVERVIEW
Brief description of the company and scope of assessment

# OVERALL COMPLIANCE POSTURE
High-level assessment across all regulations analyzed

# DETAILED FINDINGS BY REGULATION
For each regulation analyzed, provide:
- Compliant areas
- Identified gaps
- Partial implementations
- Risk assessments

# RISK PRIORITIZATION MATRIX
Categorize findings by risk level (High/Medium/Low) and impact

# REMEDIATION RECOMMENDATIONS
Actionable recommendations for addressing gaps, organized by priority

# IMPLEMENTATION TIMELINE
Suggested timeline for addressing findings

# CONCLUSION
Summary and next steps

Make it professional, actionable, and specific to the findings provided.
`

	// reportHeaderTemplate takes: company, regulations, chunk count, analysis date, separator.
	reportHeaderTemplate = `
COMPLIANCE ASSESSMENT REPORT
Generated: %s
Regulations Analyzed: %s
Document Chunks: %s
Analysis Date: %s

%s
`

	// ingestionReadyTemplate takes: company description, file expectation line.
	ingestionReadyTemplate = `
Document ingestion system ready for company: %s
%s
To complete the process:
1. Upload your compliance documents (PDF, DOCX, TXT, MD) using the file upload interface
2. Process the uploaded files
3. Files will be processed in-memory for this session only
4. Then proceed with compliance analysis

Supported formats: PDF, DOCX, TXT, MD
Processing mode: In-memory only (session-based)
Ready for file upload and processing.
`
)
