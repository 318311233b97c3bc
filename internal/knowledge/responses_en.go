package knowledge

// English response templates, populated with the site owner's profile facts.
var responsesEN = map[string]string{
	TopicIdentity: "Hello! I'm the assistant for Prof. Kuan-Ying Chen's site. Kuan-Ying is an " +
		"associate professor of computer science working on machine learning for medical " +
		"imaging, with a focus on brain image segmentation and clinical decision support. " +
		"This site collects his research, publications, open-source projects, and blog posts; " +
		"the links below are a good place to start.",

	TopicResearch: "Prof. Chen's research centers on medical image analysis with machine " +
		"learning: deep-learning brain MRI segmentation, model generalization under small " +
		"sample sizes, and interpretable clinical decision support. Recent work is done " +
		"jointly with the radiology department of the affiliated hospital, aiming to bring " +
		"research results into clinical workflows. See the research page and the publication " +
		"list for details.",

	TopicProjects: "Two main projects are actively maintained: NeuroSeg, an open-source brain " +
		"image segmentation platform shipping pretrained models and annotation tooling, and " +
		"OpenCDSS, a modular clinical decision support framework piloted at two teaching " +
		"hospitals. Source code and documentation for both are on the projects page.",

	TopicPublications: "Prof. Chen has published over thirty journal and conference papers in " +
		"the last five years, mainly in IEEE TMI, Medical Image Analysis, and MICCAI, and " +
		"holds two patents on medical image processing. The full list with PDFs and BibTeX " +
		"entries is on the publications page.",

	TopicContact: "The fastest way to reach Prof. Chen is email (see the contact page). For " +
		"research collaboration or talk invitations, please mention the topic in the subject. " +
		"Office hours are Wednesday afternoons, by appointment.",

	TopicDefault: "Thanks for your question! This site collects Prof. Kuan-Ying Chen's " +
		"research, publications, open-source projects, and technical blog. You can ask me " +
		"about his research directions, projects, or papers, or browse the sections from the " +
		"home page.",
}

// responsesByLanguage indexes the per-language template maps.
var responsesByLanguage = map[string]map[string]string{
	LangZH: responsesZH,
	LangEN: responsesEN,
}
